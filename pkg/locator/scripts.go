package locator

// MarkerAttribute is written onto elements matched inside shadow roots so they
// stay addressable after resolution.
const MarkerAttribute = "data-pagehand-id"

// SelectorEngine is the name of the custom selector engine that finds a
// marked element inside a host's open or closed shadow root.
const SelectorEngine = "pagehand-marker"

// backdoorScript runs before any page script in every document. It records
// closed shadow roots against their hosts so the probe can reach them.
const backdoorScript = `(() => {
  if (window.__pagehand__ && window.__pagehand__.installed) return;
  const closedRoots = new WeakMap();
  const attachShadow = Element.prototype.attachShadow;
  Element.prototype.attachShadow = function (init) {
    const root = attachShadow.call(this, init);
    if (init && init.mode === "closed") closedRoots.set(this, root);
    return root;
  };
  Object.defineProperty(window, "__pagehand__", {
    value: Object.freeze({
      installed: true,
      getClosedRoot: (host) => closedRoots.get(host),
    }),
    configurable: false,
    enumerable: false,
    writable: false,
  });
})();`

// probeScript looks for the segment once inside the host's shadow root and
// marks the match. It returns {id, noRoot, assigned}.
const probeScript = `(host, a) => {
  const backdoor = window.__pagehand__;
  const root = host.shadowRoot || (backdoor && backdoor.getClosedRoot ? backdoor.getClosedRoot(host) : null);
  if (!root) return { id: null, noRoot: true, assigned: false };
  const el = root.querySelector(a.strict) || root.querySelector(a.descendant);
  if (!el) return { id: null, noRoot: false, assigned: false };
  const existing = el.getAttribute(a.attr);
  if (existing) return { id: existing, noRoot: false, assigned: false };
  el.setAttribute(a.attr, a.candidate);
  return { id: a.candidate, noRoot: false, assigned: true };
}`

// selectorEngineScript evaluates to a Playwright selector engine. The root it
// receives is the host element; the selector body is the marker value.
const selectorEngineScript = `(() => {
  const attr = "` + MarkerAttribute + `";
  const roots = (host) => {
    const out = [host];
    if (host.shadowRoot) out.push(host.shadowRoot);
    const backdoor = window.__pagehand__;
    const closed = backdoor && backdoor.getClosedRoot ? backdoor.getClosedRoot(host) : null;
    if (closed) out.push(closed);
    return out;
  };
  return {
    queryAll(host, id) {
      const sel = "[" + attr + "=\"" + CSS.escape(id) + "\"]";
      const found = [];
      for (const r of roots(host)) {
        if (!r.querySelectorAll) continue;
        for (const el of r.querySelectorAll(sel)) {
          if (!found.includes(el)) found.push(el);
        }
      }
      return found;
    },
    query(host, id) {
      return this.queryAll(host, id)[0] || null;
    },
  };
})()`

// clearMarkersScript removes every marker from the document, descending into
// open and backdoor-exposed closed shadow roots. It returns the count removed.
const clearMarkersScript = `(attr) => {
  const backdoor = window.__pagehand__;
  let removed = 0;
  const visit = (root) => {
    for (const el of root.querySelectorAll("*")) {
      if (el.hasAttribute(attr)) {
        el.removeAttribute(attr);
        removed++;
      }
      const shadow = el.shadowRoot || (backdoor && backdoor.getClosedRoot ? backdoor.getClosedRoot(el) : null);
      if (shadow) visit(shadow);
    }
  };
  visit(document);
  return removed;
}`
