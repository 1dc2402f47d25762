package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"sort"
	"strings"

	"github.com/lrstanley/go-ytdlp"
	"github.com/samber/lo"
)

const (
	NameYTDLP = "ytdlp"

	// default PO token context for the web family of clients
	poTokenContext = "gvs"
	defaultClient  = "web"
)

// YTDLP extracts through the yt-dlp binary. Metadata is read from the JSON
// dump, nothing is downloaded.
type YTDLP struct {
	executable string
	format     string
	logger     *slog.Logger
}

func NewYTDLP(executable, format string, logger *slog.Logger) *YTDLP {
	if executable == "" {
		executable = "yt-dlp"
	}
	if format == "" {
		format = "bestaudio/best"
	}
	return &YTDLP{
		executable: executable,
		format:     format,
		logger:     logger,
	}
}

type dumpedInfo struct {
	URL       *string  `json:"url"`
	Title     *string  `json:"title"`
	Uploader  *string  `json:"uploader"`
	Duration  *float64 `json:"duration"`
	Thumbnail *string  `json:"thumbnail"`
}

func (y *YTDLP) Extract(ctx context.Context, req Request) (*Info, error) {
	cmd := y.Command(req)
	args := append(HeaderArgs(req), req.URL)

	y.logger.Debug("Running yt-dlp",
		slog.String("profile", req.Profile),
		slog.Any("clients", req.Clients),
		slog.Bool("cookie_file", req.CookieFile != ""),
		slog.Bool("token", req.Token != ""))

	res, err := cmd.Run(ctx, args...)
	if err != nil {
		msg := err.Error()
		if res != nil {
			if line := lastLine(res.Stderr); line != "" {
				msg = line
			}
		}
		return nil, Classify(NameYTDLP, msg)
	}

	return decodeDump(res.Stdout)
}

// Command builds the yt-dlp invocation for req, without the trailing
// header arguments and URL.
func (y *YTDLP) Command(req Request) *ytdlp.Command {
	cmd := ytdlp.New().
		SetExecutable(y.executable).
		DumpJSON().
		NoPlaylist().
		NoWarnings().
		Format(y.format)

	if args := ExtractorArgs(req); args != "" {
		cmd = cmd.ExtractorArgs(args)
	}

	if req.CookieFile != "" {
		cmd = cmd.Cookies(req.CookieFile)
	}

	return cmd
}

// Check verifies the yt-dlp binary can be found.
func (y *YTDLP) Check(_ context.Context) error {
	if _, err := exec.LookPath(y.executable); err != nil {
		return fmt.Errorf("yt-dlp executable %q: %w", y.executable, err)
	}
	return nil
}

// ExtractorArgs renders the youtube extractor arguments for req, e.g.
// "youtube:player_client=web;skip=webpage;po_token=web.gvs+TOKEN".
func ExtractorArgs(req Request) string {
	var parts []string

	clients := lo.Compact(req.Clients)
	if len(clients) > 0 {
		parts = append(parts, "player_client="+strings.Join(clients, ","))
	}

	if skip := lo.Compact(req.Skip); len(skip) > 0 {
		parts = append(parts, "skip="+strings.Join(skip, ","))
	}

	if req.Token != "" {
		targets := clients
		if len(targets) == 0 {
			targets = []string{defaultClient}
		}
		tokens := lo.Map(targets, func(client string, _ int) string {
			return client + "." + poTokenContext + "+" + req.Token
		})
		parts = append(parts, "po_token="+strings.Join(tokens, ","))
	}

	if len(parts) == 0 {
		return ""
	}

	return "youtube:" + strings.Join(parts, ";")
}

// HeaderArgs returns repeated --add-headers arguments for the caller cookie,
// the user agent and the profile's static headers, in a stable order.
func HeaderArgs(req Request) []string {
	var args []string
	add := func(name, value string) {
		args = append(args, "--add-headers", name+":"+value)
	}

	keys := lo.Keys(req.Headers)
	sort.Strings(keys)
	for _, k := range keys {
		add(k, req.Headers[k])
	}

	if req.UserAgent != "" {
		add("User-Agent", req.UserAgent)
	}

	if req.Cookie != "" {
		add("Cookie", req.Cookie)
	}

	return args
}

func decodeDump(stdout string) (*Info, error) {
	var dump dumpedInfo
	if err := json.NewDecoder(strings.NewReader(stdout)).Decode(&dump); err != nil {
		return nil, &Error{Engine: NameYTDLP, Message: fmt.Sprintf("decode yt-dlp output: %v", err), Kind: ErrEngineFailed}
	}

	if dump.URL == nil || strings.TrimSpace(*dump.URL) == "" {
		return nil, &Error{Engine: NameYTDLP, Message: "yt-dlp returned no stream url", Kind: ErrNoFormat}
	}

	return &Info{
		URL:       dump.URL,
		Title:     dump.Title,
		Uploader:  dump.Uploader,
		Duration:  dump.Duration,
		Thumbnail: dump.Thumbnail,
	}, nil
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}
