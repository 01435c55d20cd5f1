// Command execution for CLI commands.
//
// Information Hiding:
// - Settings, runtime and adapter wiring hidden
// - Exchange log setup hidden
// - Output formatting hidden

package cli

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/richinex/ollamabridge/adapter"
	"github.com/richinex/ollamabridge/config"
	"github.com/richinex/ollamabridge/internal/logger"
	"github.com/richinex/ollamabridge/llm"
	"github.com/richinex/ollamabridge/model"
	"github.com/richinex/ollamabridge/server"
	"github.com/richinex/ollamabridge/storage"
	"github.com/richinex/ollamabridge/tools"
	"go.uber.org/zap"
)

// DefaultSystemPrompt is used by chat when --system is not given.
const DefaultSystemPrompt = "You are a coding assistant running against a local model. " +
	"Use the provided tools when you need to inspect or change the workspace."

// Options holds CLI execution options.
type Options struct {
	Runtime    string
	Model      string
	Host       string
	WorkDir    string
	ConfigFile string
	DBPath     string
	Verbose    bool
	JSON       bool
}

// session is everything one command needs, built from Options.
type session struct {
	settings config.Settings
	logger   *logger.Logger
	runtime  llm.Runtime
	adapter  *adapter.Adapter
	store    *storage.SqliteStorage
}

func (s *session) Close() {
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn("Failed to close exchange log", zap.Error(err))
		}
	}
	_ = s.logger.Sync()
}

// loadSettings applies command-line overrides on top of file and environment settings.
func loadSettings(opts Options) (config.Settings, error) {
	configFile := opts.ConfigFile
	if configFile == "" {
		configFile = os.Getenv(config.ConfigFileEnv)
	}

	settings, err := config.Load(opts.Runtime, configFile)
	if err != nil {
		return config.Settings{}, err
	}

	if opts.Model != "" {
		settings.Ollama.ModelID = opts.Model
	}
	if opts.Host != "" {
		derived := settings.Ollama.Host + "/v1"
		settings.Ollama.Host = config.NormalizeHost(opts.Host)
		if settings.OpenAI.BaseURL == derived {
			settings.OpenAI.BaseURL = settings.Ollama.Host + "/v1"
		}
	}
	if opts.WorkDir != "" {
		abs, err := filepath.Abs(opts.WorkDir)
		if err != nil {
			return config.Settings{}, fmt.Errorf("invalid working directory: %w", err)
		}
		settings.Workspace.Dir = abs
	}
	if opts.DBPath != "" {
		settings.Storage.DBPath = opts.DBPath
	}
	if opts.Verbose {
		settings.Log.Level = "debug"
	}
	return settings, nil
}

func newSession(opts Options, withStore bool) (*session, error) {
	settings, err := loadSettings(opts)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(&settings.Log)
	if err != nil {
		return nil, err
	}

	runtime, err := llm.NewRuntimeBuilder(settings.RuntimeType()).
		Host(settings.Ollama.Host).
		BaseURL(settings.OpenAI.BaseURL).
		APIKey(settings.OpenAI.APIKey).
		Build()
	if err != nil {
		return nil, err
	}

	s := &session{
		settings: settings,
		logger:   log,
		runtime:  runtime,
		adapter: adapter.New(runtime, adapter.Options{
			ModelID:    settings.Ollama.ModelID,
			WorkingDir: settings.Workspace.Dir,
			Logger:     log.Named("adapter").Logger,
		}),
	}

	if withStore && settings.Storage.DBPath != "" {
		store, err := storage.OpenSqlite(settings.Storage.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		s.store = store
	}

	return s, nil
}

// record writes one exchange if the exchange log is enabled.
func (s *session) record(ctx context.Context, userParts []model.Part, msg adapter.ResponseMessage, callErr error) {
	if s.store == nil {
		return
	}
	ex := storage.Exchange{
		Runtime: s.runtime.Name(),
		Model:   s.adapter.Model().ID,
		Request: s.adapter.DescribeRequest(userParts).Messages,
	}
	if callErr != nil {
		ex.Error = callErr.Error()
	} else {
		ex.ID = msg.ID
		ex.StopReason = msg.StopReason
		ex.InputTokens = msg.Usage.InputTokens
		ex.OutputTokens = msg.Usage.OutputTokens
		if data, err := json.Marshal(msg); err == nil {
			ex.Response = data
		}
	}
	if _, err := s.store.Record(ctx, ex); err != nil {
		s.logger.Warn("Failed to record exchange", zap.Error(err))
	}
}

// Ask sends one prompt and prints the reply.
func Ask(ctx context.Context, prompt, systemPrompt string, opts Options, out io.Writer) error {
	s, err := newSession(opts, true)
	if err != nil {
		return err
	}
	defer s.Close()

	history := []model.Turn{model.UserTurn(prompt)}
	msg, err := s.adapter.CreateMessage(ctx, systemPrompt, history)
	s.record(ctx, history[0].Content.AsParts(), msg, err)
	if err != nil {
		return describeRuntimeError(err, s.settings)
	}

	if opts.JSON {
		return writeJSON(out, msg)
	}
	printMessage(out, msg)
	return nil
}

// Chat starts an interactive chat session. Tool calls are printed, not executed.
func Chat(ctx context.Context, systemPrompt string, opts Options, in io.Reader, out io.Writer) error {
	s, err := newSession(opts, true)
	if err != nil {
		return err
	}
	defer s.Close()

	fmt.Fprintf(out, "Chat with %s via %s. Type 'exit' to quit.\n\n", s.adapter.Model().ID, s.runtime.Name())

	var history []model.Turn
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			break
		}

		turn := model.UserTurn(input)
		msg, err := s.adapter.CreateMessage(ctx, systemPrompt, append(history, turn))
		s.record(ctx, turn.Content.AsParts(), msg, err)
		if err != nil {
			fmt.Fprintf(out, "\nError: %v\n\n", describeRuntimeError(err, s.settings))
			continue
		}

		fmt.Fprintln(out)
		printMessage(out, msg)
		fmt.Fprintln(out)

		history = append(history, turn, assistantTurn(msg))
	}

	return scanner.Err()
}

// assistantTurn converts a reply into a history turn.
func assistantTurn(msg adapter.ResponseMessage) model.Turn {
	var parts []model.Part
	if text := msg.Text(); text != "" {
		parts = append(parts, model.TextPart{Text: text})
	}
	for _, tu := range msg.ToolUses() {
		parts = append(parts, model.ToolUsePart{ID: tu.ID, Name: tu.Name, Input: tu.Input})
	}
	return model.Turn{Role: model.RoleAssistant, Content: model.PartsContent(parts...)}
}

// Describe prints the readable form of a request holding prompt and images.
func Describe(prompt string, imagePaths []string, opts Options, out io.Writer) error {
	s, err := newSession(opts, false)
	if err != nil {
		return err
	}
	defer s.Close()

	var parts []model.Part
	if prompt != "" {
		parts = append(parts, model.TextPart{Text: prompt})
	}
	for _, path := range imagePaths {
		img, err := loadImage(path)
		if err != nil {
			return err
		}
		parts = append(parts, img)
	}

	return writeJSON(out, s.adapter.DescribeRequest(parts))
}

func loadImage(path string) (model.ImagePart, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.ImagePart{}, fmt.Errorf("failed to read image: %w", err)
	}
	mediaType := mime.TypeByExtension(filepath.Ext(path))
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}
	return model.ImagePart{MediaType: mediaType, Data: base64.StdEncoding.EncodeToString(data)}, nil
}

// ListTools prints the tool catalog for workDir.
func ListTools(workDir string, verbose, asJSON bool, out io.Writer) error {
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		workDir = wd
	}
	catalog := tools.NewCatalog(workDir)

	if asJSON {
		return writeJSON(out, catalog.Definitions())
	}

	fmt.Fprintln(out, "Available tools:")
	fmt.Fprintln(out)

	for _, meta := range catalog.List() {
		fmt.Fprintf(out, "  %s\n", meta.Name)
		fmt.Fprintf(out, "    %s\n", meta.Description)

		if verbose && len(meta.Parameters) > 0 {
			fmt.Fprintln(out, "    Parameters:")
			for _, param := range meta.Parameters {
				req := ""
				if param.Required {
					req = "*"
				}
				fmt.Fprintf(out, "      %s%s: %s - %s\n", param.Name, req, param.ParamType, param.Description)
			}
		}
		fmt.Fprintln(out)
	}
	return nil
}

// ListModels prints the model catalog, marking the model configured ID resolves to.
func ListModels(configuredID string, asJSON bool, out io.Writer) error {
	current := llm.ResolveModel(configuredID).ID
	models := llm.KnownModels()

	if asJSON {
		return writeJSON(out, models)
	}

	for _, m := range models {
		marker := " "
		if m.ID == current {
			marker = "*"
		}
		fmt.Fprintf(out, "%s %-24s ctx=%-7d max=%-5d %s\n",
			marker, m.ID, m.Info.ContextWindow, m.Info.MaxTokens, m.Info.Description)
	}
	return nil
}

// ConfiguredModel returns the model id from settings and flags, for ListModels.
func ConfiguredModel(opts Options) (string, error) {
	settings, err := loadSettings(opts)
	if err != nil {
		return "", err
	}
	return settings.Ollama.ModelID, nil
}

// ConfiguredWorkDir returns the working directory advertised in tool schemas.
func ConfiguredWorkDir(opts Options) (string, error) {
	settings, err := loadSettings(opts)
	if err != nil {
		return "", err
	}
	return settings.Workspace.Dir, nil
}

// Serve runs the HTTP server until ctx is cancelled or a signal arrives.
func Serve(ctx context.Context, addr string, opts Options) error {
	s, err := newSession(opts, true)
	if err != nil {
		return err
	}
	defer s.Close()

	if addr == "" {
		addr = s.settings.Server.Addr
	}

	srvOpts := server.Options{
		Addr:    addr,
		Runtime: s.runtime.Name(),
		Logger:  s.logger.Named("http").Logger,
	}
	if s.store != nil {
		srvOpts.Store = s.store
	}
	srv := server.New(s.adapter, srvOpts)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}
	return <-errCh
}

// History prints recent exchanges from the exchange log.
func History(ctx context.Context, limit int, opts Options, out io.Writer) error {
	s, err := newSession(opts, true)
	if err != nil {
		return err
	}
	defer s.Close()

	if s.store == nil {
		return errors.New("exchange log is disabled: set --db or storage.db_path")
	}

	exchanges, err := s.store.Recent(ctx, limit)
	if err != nil {
		return err
	}

	if opts.JSON {
		return writeJSON(out, exchanges)
	}

	if len(exchanges) == 0 {
		fmt.Fprintln(out, "No exchanges recorded.")
		return nil
	}
	for _, ex := range exchanges {
		status := ex.StopReason
		if ex.Failed() {
			status = "error: " + truncateString(ex.Error, 60)
		}
		fmt.Fprintf(out, "%s  %s  %s  in=%d out=%d  %s\n",
			ex.CreatedAt.Format(time.DateTime), ex.ID, ex.Model, ex.InputTokens, ex.OutputTokens, status)
		if n := len(ex.Request); n > 0 {
			fmt.Fprintf(out, "    %s\n", truncateString(ex.Request[n-1].Content, 100))
		}
	}
	return nil
}

// describeRuntimeError adds a hint for the errors users can fix themselves.
func describeRuntimeError(err error, settings config.Settings) error {
	switch {
	case llm.IsRuntimeUnavailable(err):
		return fmt.Errorf("%w (is the runtime running at %s?)", err, settings.Ollama.Host)
	case llm.IsModelNotFound(err):
		return fmt.Errorf("%w (try: ollama pull %s)", err, llm.ResolveModel(settings.Ollama.ModelID).ID)
	default:
		return err
	}
}

func printMessage(out io.Writer, msg adapter.ResponseMessage) {
	if text := msg.Text(); text != "" {
		fmt.Fprintln(out, text)
	}
	for _, tu := range msg.ToolUses() {
		input, _ := json.Marshal(tu.Input)
		fmt.Fprintf(out, "[tool_use %s] %s %s\n", tu.ID, tu.Name, input)
	}
	fmt.Fprintf(out, "(%s, %d in / %d out tokens)\n", msg.StopReason, msg.Usage.InputTokens, msg.Usage.OutputTokens)
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncateString(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
