// Package extractor defines the contract between the strategy runner and the
// engines that turn a watch URL into a playable audio stream URL.
//
// Two engines are provided:
//
//   - YTDLP drives the yt-dlp binary through github.com/lrstanley/go-ytdlp and
//     maps a Request onto --extractor-args, --cookies and --add-headers.
//   - Native resolves streams in-process with github.com/kkdai/youtube/v2,
//     optionally over a transport that presents a Chrome TLS fingerprint.
//
// Engines are stateless with respect to requests: every Extract call carries
// its full configuration in the Request value.
package extractor
