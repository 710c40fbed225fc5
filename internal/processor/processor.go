package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"codeberg.org/snonux/jembatan/internal"
	"codeberg.org/snonux/jembatan/internal/batch"
	"codeberg.org/snonux/jembatan/internal/cli"
	"codeberg.org/snonux/jembatan/internal/config"
	"codeberg.org/snonux/jembatan/internal/handler"
	"codeberg.org/snonux/jembatan/internal/history"
	"codeberg.org/snonux/jembatan/internal/i18n"
	"codeberg.org/snonux/jembatan/internal/models"
	"codeberg.org/snonux/jembatan/internal/provider"
	"codeberg.org/snonux/jembatan/internal/settings"
	"codeberg.org/snonux/jembatan/internal/speech"
	"codeberg.org/snonux/jembatan/internal/translation"
)

// SettingsStore is the persisted provider selection
type SettingsStore interface {
	settings.Store
	Write() error
	Path() string
}

// HistoryStore keeps saved translations
type HistoryStore interface {
	Save(ctx context.Context, e *history.Entry) error
	List(ctx context.Context, userID string, limit int) ([]*history.Entry, error)
	Delete(ctx context.Context, userID, id string) error
}

// Options are the collaborators of a Processor. Nil History and Speech are
// created on first use.
type Options struct {
	Config     *config.Config
	Logger     *logrus.Logger
	Out        io.Writer
	ErrOut     io.Writer
	Translator handler.Translator
	Settings   SettingsStore
	History    HistoryStore
	Speech     speech.Provider
	// Credentials are API keys from flags or the config file
	Credentials map[provider.ID]string
}

// Processor handles the main translation logic
type Processor struct {
	flags  *cli.Flags
	config *config.Config
	logger *logrus.Logger
	out    io.Writer
	errOut io.Writer

	translator  handler.Translator
	settings    SettingsStore
	history     HistoryStore
	speech      speech.Provider
	credentials map[provider.ID]string

	closers []io.Closer
}

// New creates a processor from explicit collaborators
func New(flags *cli.Flags, opts Options) *Processor {
	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.ErrOut == nil {
		opts.ErrOut = os.Stderr
	}
	if opts.Credentials == nil {
		opts.Credentials = map[provider.ID]string{}
	}
	return &Processor{
		flags:       flags,
		config:      opts.Config,
		logger:      opts.Logger,
		out:         opts.Out,
		errOut:      opts.ErrOut,
		translator:  opts.Translator,
		settings:    opts.Settings,
		history:     opts.History,
		speech:      opts.Speech,
		credentials: opts.Credentials,
	}
}

// NewProcessor creates a processor from the loaded viper configuration
func NewProcessor(flags *cli.Flags) (*Processor, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	i18n.Init(cfg.Language)
	logger := config.NewLogger(cfg.LogLevel)

	store, err := settings.OpenFileStore(cfg.SettingsPath)
	if err != nil {
		return nil, err
	}

	creds := map[provider.ID]string{provider.OpenAI: cli.GetOpenAIKey()}
	for _, id := range provider.PaidIDs {
		if key := viper.GetString("providers." + string(id) + ".api_key"); key != "" && creds[id] == "" {
			creds[id] = key
		}
	}

	return New(flags, Options{
		Config:      cfg,
		Logger:      logger,
		Translator:  cfg.NewTranslationService(logger),
		Settings:    store,
		Credentials: creds,
	}), nil
}

// Close releases the stores opened by the processor
func (p *Processor) Close() error {
	var errs []error
	for _, c := range p.closers {
		errs = append(errs, c.Close())
	}
	p.closers = nil
	return errors.Join(errs...)
}

// ProcessText translates the words given on the command line
func (p *Processor) ProcessText(ctx context.Context, args []string) error {
	text := strings.TrimSpace(strings.Join(args, " "))

	result, err := p.translateOne(ctx, text, p.config.Direction, p.flags.Save)
	if err != nil {
		return err
	}

	if p.flags.Swap {
		back, err := p.translateOne(ctx, result.Translation, result.Direction.Reverse(), false)
		if err != nil {
			fmt.Fprintf(p.errOut, "Warning: back translation failed: %v\n", err)
		} else {
			result.BackTranslation = back.Translation
		}
	}

	if p.flags.Speak {
		file, err := p.Speak(ctx, result.Translation, speech.LanguageOf(result.Direction))
		if err != nil {
			fmt.Fprintf(p.errOut, "Warning: audio generation failed: %v\n", err)
		} else {
			result.Audio = file
		}
	}

	return p.printResult(result)
}

// translateOne runs one translation through the handler. The returned
// error carries the localized end-user message.
func (p *Processor) translateOne(ctx context.Context, text string, dir provider.Direction, save bool) (*batch.Result, error) {
	h, err := p.handler(save)
	if err != nil {
		return nil, err
	}

	req := handler.Request{
		Text:      text,
		Direction: string(dir),
		Provider:  string(p.config.Provider),
		APIKey:    p.credential(),
		UserID:    p.flags.User,
		Save:      save,
	}
	resp, _ := h.Handle(ctx, req)
	if resp.Error != "" {
		if resp.Detail != "" {
			p.logger.WithField("provider", resp.Provider).Debug(resp.Detail)
		}
		return nil, errors.New(localize(resp.Err()))
	}

	result := &batch.Result{
		Input:     text,
		Direction: resp.Direction,
		Provider:  resp.Provider,
		HistoryID: resp.HistoryID,
	}
	if resp.Japanese != nil {
		result.Translation = resp.Japanese.JapaneseText
		result.Romaji = resp.Japanese.Romaji
		result.JLPTLevel = resp.Japanese.JLPTLevel
	} else if resp.Indonesian != nil {
		result.Translation = resp.Indonesian.IndonesianText
		result.Romaji = resp.Indonesian.Romaji
		result.JLPTLevel = resp.Indonesian.JLPTLevel
	}

	if resp.Message != "" {
		fmt.Fprintln(p.errOut, i18n.T(resp.Message))
	}
	if resp.SaveError != "" {
		fmt.Fprintln(p.errOut, i18n.T(resp.SaveError))
	}
	return result, nil
}

func (p *Processor) handler(save bool) (*handler.Handler, error) {
	cfg := handler.Config{
		Translator:       p.translator,
		DefaultDirection: p.config.Direction,
		Logger:           p.logger,
	}
	if p.settings != nil {
		cfg.Settings = p.settings
	}
	if save {
		store, err := p.historyStore()
		if err != nil {
			return nil, err
		}
		cfg.History = store
	}
	return handler.New(cfg), nil
}

// credential returns the API key for the configured provider. The flag
// wins over the config file; settings are consulted by the handler.
func (p *Processor) credential() string {
	if p.flags.APIKey != "" {
		return p.flags.APIKey
	}
	if p.config.Provider.IsPaid() {
		return p.credentials[p.config.Provider]
	}
	return ""
}

// ProcessBatch translates every entry of the batch file and writes the
// results. Failed entries are reported in the output and do not stop the
// batch.
func (p *Processor) ProcessBatch(ctx context.Context) error {
	entries, err := batch.ReadBatchFile(p.flags.BatchFile, p.config.Direction)
	if err != nil {
		return err
	}

	results := make([]batch.Result, 0, len(entries))
	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		p.logger.WithFields(logrus.Fields{
			"line":      entry.Line,
			"direction": entry.Direction,
		}).Debugf("Processing %d/%d", i+1, len(entries))

		r, err := p.translateOne(ctx, entry.Text, entry.Direction, p.flags.Save)
		if err != nil {
			results = append(results, batch.Result{Input: entry.Text, Direction: entry.Direction, Error: err.Error()})
			continue
		}
		results = append(results, *r)
	}

	if p.flags.Output == cli.OutputJSON {
		if err := writeJSON(p.out, results); err != nil {
			return err
		}
	} else if err := batch.WriteResults(p.out, results); err != nil {
		return err
	}

	// Print summary
	failed := batch.Failed(results)
	fmt.Fprintf(p.errOut, "\n=== Batch Summary ===\n")
	fmt.Fprintf(p.errOut, "Total: %d\n", len(results))
	fmt.Fprintf(p.errOut, "Translated: %d\n", len(results)-failed)
	if failed > 0 {
		fmt.Fprintf(p.errOut, "Errors: %d\n", failed)
	}
	fmt.Fprintf(p.errOut, "=====================\n")
	return nil
}

// Speak generates the pronunciation of text in lang (speech.LangJapanese
// or speech.LangIndonesian) and returns the file
func (p *Processor) Speak(ctx context.Context, text, lang string) (string, error) {
	if err := speech.ValidateText(text, lang); err != nil {
		return "", err
	}

	if p.speech == nil {
		sp, err := speech.NewProvider(ctx, p.config.SpeechConfig(p.credentials[provider.OpenAI], p.logger))
		if err != nil {
			return "", err
		}
		p.speech = sp
	}

	outDir := p.config.Audio.OutputDir
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create audio directory: %w", err)
	}

	file := filepath.Join(outDir, internal.AudioFileName(text, p.config.Audio.Format))
	if err := p.speech.GenerateAudio(ctx, text, lang, file); err != nil {
		return "", err
	}
	return file, nil
}

// ListModels prints the OpenAI models available to the configured key
func (p *Processor) ListModels(ctx context.Context) error {
	lister := models.NewLister(p.credentials[provider.OpenAI], p.config.BaseURLs[provider.OpenAI])
	return lister.ListAvailableModels(ctx, p.out)
}

func (p *Processor) printResult(r *batch.Result) error {
	switch p.flags.Output {
	case cli.OutputJSON:
		return writeJSON(p.out, r)
	case cli.OutputYAML:
		enc := yaml.NewEncoder(p.out)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		return enc.Close()
	case cli.OutputText, "":
	default:
		return fmt.Errorf("unknown output format: %s", p.flags.Output)
	}

	label := i18n.T("Terjemahan")
	if r.Direction == provider.JPToID {
		label = i18n.T("Teks Indonesia")
	}
	fmt.Fprintf(p.out, "%s: %s\n", label, r.Translation)
	if r.Romaji != "" {
		fmt.Fprintf(p.out, "Romaji: %s\n", r.Romaji)
	}
	fmt.Fprintf(p.out, "%s: %s\n", i18n.T("Level JLPT"), r.JLPTLevel)
	fmt.Fprintf(p.out, "Provider: %s\n", r.Provider.DisplayName())
	if r.BackTranslation != "" {
		fmt.Fprintf(p.out, "<-> %s\n", r.BackTranslation)
	}
	if r.Audio != "" {
		fmt.Fprintln(p.out, i18n.T("Audio disimpan ke %s", r.Audio))
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	return nil
}

// localize returns the end-user message of err in the interface language
func localize(err error) string {
	if err == nil {
		return ""
	}
	if msgID, args, ok := translation.UserMessage(err); ok {
		return i18n.T(msgID, args...)
	}
	return i18n.T(err.Error())
}
