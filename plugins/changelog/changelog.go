package changelog

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	core "chessbot/internal/plugin"
	logx "chessbot/pkg/logx"
)

// Config points at the deployment checkout and where to announce updates.
//
// The plugin is best-effort by design: no git, no checkout, or no
// announce_chat just means it stays quiet.
type Config struct {
	RepoPath     string `json:"repo_path"`
	StatePath    string `json:"state_path"`
	AnnounceChat int64  `json:"announce_chat"`
}

type Plugin struct {
	core.PluginBase

	mu  sync.RWMutex
	cfg Config
}

func New() *Plugin { return &Plugin{} }

func (p *Plugin) Name() string { return "changelog" }

func (p *Plugin) Init(ctx context.Context, deps core.PluginDeps) error {
	p.InitBase(deps, p.Name())
	p.mu.Lock()
	p.cfg = Config{RepoPath: ".", StatePath: "./.changelog_head"}
	p.mu.Unlock()
	return nil
}

func (p *Plugin) Start(ctx context.Context) error {
	p.StartBase(ctx)
	p.Runner.Go0("announce", func(c context.Context) {
		p.announceOnce(c)
	})
	return nil
}

func (p *Plugin) Stop(ctx context.Context) error { return p.StopBase(ctx) }

func (p *Plugin) OnConfigChange(ctx context.Context, raw json.RawMessage) error {
	if len(raw) == 0 {
		return nil
	}
	c, err := core.DecodePluginConfig[Config](raw)
	if err != nil {
		return err
	}
	if strings.TrimSpace(c.RepoPath) == "" {
		c.RepoPath = "."
	}
	if strings.TrimSpace(c.StatePath) == "" {
		c.StatePath = "./.changelog_head"
	}
	p.mu.Lock()
	p.cfg = c
	p.mu.Unlock()
	return nil
}

func (p *Plugin) Commands() []core.Command {
	return []core.Command{
		{
			Route:       "changelog",
			Description: "show the most recent deployed commits",
			Usage:       "/changelog",
			Access:      core.AccessOwnerOnly,
			Handle: func(ctx context.Context, req *core.Request) error {
				c := p.cfgSnapshot()
				log, err := p.recentLog(ctx, c.RepoPath, 10)
				if err != nil || log == "" {
					_, _ = req.Adapter.SendText(ctx, req.Chat, "No changelog available.", nil)
					return nil
				}
				_, _ = req.Adapter.SendText(ctx, req.Chat, "Recent changes:\n"+log, nil)
				return nil
			},
		},
	}
}

func (p *Plugin) cfgSnapshot() Config {
	p.mu.RLock()
	c := p.cfg
	p.mu.RUnlock()
	return c
}

// announceOnce posts new commits since the last recorded HEAD, then records
// the current HEAD. Every failure path is silent at info level.
func (p *Plugin) announceOnce(ctx context.Context) {
	c := p.cfgSnapshot()

	head, err := p.gitOutput(ctx, c.RepoPath, "rev-parse", "HEAD")
	if err != nil {
		p.Log.Debug("changelog: not a git checkout", logx.Any("err", err))
		return
	}

	prev := ""
	if b, err := os.ReadFile(c.StatePath); err == nil {
		prev = strings.TrimSpace(string(b))
	}
	if prev == head {
		return
	}

	if c.AnnounceChat != 0 && prev != "" {
		log, err := p.gitOutput(ctx, c.RepoPath, "log", "--oneline", prev+".."+head)
		if err == nil && log != "" {
			_ = p.Info(c.AnnounceChat, "🤖 Bot updated:\n"+log)
		}
	}

	if err := os.WriteFile(c.StatePath, []byte(head+"\n"), 0o644); err != nil {
		p.Log.Warn("changelog: state write failed", logx.String("path", c.StatePath), logx.Any("err", err))
	}
}

func (p *Plugin) recentLog(ctx context.Context, repo string, n int) (string, error) {
	return p.gitOutput(ctx, repo, "log", "--oneline", "-n", strconv.Itoa(n))
}

func (p *Plugin) gitOutput(ctx context.Context, repo string, args ...string) (string, error) {
	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	cmd := exec.CommandContext(cctx, "git", append([]string{"-C", repo}, args...)...)
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
