// Package browser provides page navigation for the discovery engine.
//
// The engine consumes the Browser and Page contracts abstractly: navigate
// to a URL, read the rendered HTML or visible text, close the page. Two
// implementations exist: Chrome drives a headless Chrome instance through
// chromedp and supports consent-banner interaction and cookie capture;
// Fetcher is a plain HTTP client for sites that render without JavaScript
// and for tests.
//
// Every Page must be closed on every exit path. Pages are cheap, isolated
// browsing contexts; leaking them across protocol runs exhausts the browser.
package browser
