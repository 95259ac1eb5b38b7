// scripts.go — JavaScript evaluated inside the chat page.
package rodpage

import _ "embed"

// InjectScript installs the isManageInjected probe. It is plain statements so
// it can be registered with EvalOnNewDocument as well as run immediately.
//
//go:embed inject.js
var InjectScript string

// injectNowScript runs InjectScript in the current document.
var injectNowScript = "() => {\n" + InjectScript + "\n}"

// probeScript reports whether InjectScript ran in the current document.
const probeScript = `() => typeof window.isManageInjected === 'function' && window.isManageInjected() === true`

// clickScript mirrors element.click(): no pointer movement, no hit testing.
const clickScript = `() => this.click()`

// focusScript focuses the element without scrolling the panel twice.
const focusScript = `() => this.focus()`

// scrollScript centers the element only when it is off screen. The list may
// render lazily, so entries are scrolled to as they are examined.
const scrollScript = `() => {
  if (typeof this.scrollIntoViewIfNeeded === 'function') {
    this.scrollIntoViewIfNeeded(true);
  } else {
    this.scrollIntoView({ block: 'center' });
  }
}`

// setValueScript replaces an input's value and notifies the host framework.
const setValueScript = `(value) => {
  this.value = value;
  this.dispatchEvent(new Event('input', { bubbles: true }));
  this.dispatchEvent(new Event('change', { bubbles: true }));
}`

// settleScript resolves once the observed tree has seen no mutation for
// quietMs milliseconds. A MutationObserver does not cross shadow boundaries, so
// every open shadow root below the start, present or added later, gets observed
// as well.
const settleScript = `(quietMs) => new Promise((resolve) => {
  const options = { childList: true, subtree: true, attributes: true, characterData: true };
  const observed = new WeakSet();
  let timer;
  const observer = new MutationObserver((records) => {
    for (const record of records) {
      for (const node of record.addedNodes) {
        if (node.nodeType === Node.ELEMENT_NODE) watchHosts(node);
      }
    }
    clearTimeout(timer);
    timer = setTimeout(done, quietMs);
  });
  function watch(root) {
    if (!root || observed.has(root)) return;
    observed.add(root);
    observer.observe(root, options);
    root.querySelectorAll('*').forEach((el) => watch(el.shadowRoot));
  }
  function watchHosts(el) {
    watch(el.shadowRoot);
    el.querySelectorAll('*').forEach((child) => watch(child.shadowRoot));
  }
  function done() {
    observer.disconnect();
    resolve(true);
  }
  watch(this.shadowRoot || this);
  timer = setTimeout(done, quietMs);
})`
