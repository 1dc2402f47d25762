// Package strategy defines the extraction profiles the runner falls back
// through. A profile is plain data: which engine to use, which upstream
// clients to impersonate, and whether the locally stored cookie file and
// token may be attached. The list order is the priority order.
//
// The built-in list, in order:
//
//   - Native: in-process extraction over a Chrome TLS fingerprint
//   - Web/Cookies+PO: yt-dlp web client with cookies and PO token
//   - iOS/Android: yt-dlp mobile clients, skipping webpage and configs
//   - TV/Embedded: yt-dlp embedded TV client with cookies
package strategy
