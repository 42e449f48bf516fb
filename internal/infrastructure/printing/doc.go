// Package printing renders report HTML to PDF through a headless Chrome
// driven by chromedp. A remote DevTools endpoint can be used instead of a
// locally launched browser.
package printing
