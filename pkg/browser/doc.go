// Package browser is the host automation layer navcheck drives: a
// Playwright-backed browsing session exposing the navigation.Driver
// capability surface plus the few page actions scenario steps need.
//
// # Architecture
//
//  1. SessionManager: owns the Playwright runtime and launches sessions
//  2. Session: one browser, one browser context, any number of pages
//
// Every page of the session's browser context is a browsing context in the
// navigation sense. Pages opened by the site itself (target=_blank links,
// window.open) show up in BrowserContext.Pages() and receive an id the first
// time they are listed.
//
// # Session Lifecycle
//
//  1. Initialize: install and start Playwright once per process
//  2. StartSession: launch the browser and open the first page
//  3. Use: the scenario runner drives the session through navigation.Driver
//  4. CloseSession / Shutdown: release the browser and Playwright
//
// # Example Usage
//
//	manager := browser.NewSessionManager()
//	if err := manager.Initialize(); err != nil {
//	    return err
//	}
//	defer manager.Shutdown()
//
//	session, err := manager.StartSession("suite", browser.SessionOptions{Headless: true})
//	if err != nil {
//	    return err
//	}
//	checker := navigation.NewChecker(session, navigation.CheckerOptions{})
package browser
