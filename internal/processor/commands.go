package processor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"codeberg.org/snonux/jembatan/internal"
	"codeberg.org/snonux/jembatan/internal/anki"
	"codeberg.org/snonux/jembatan/internal/archive"
	"codeberg.org/snonux/jembatan/internal/handler"
	"codeberg.org/snonux/jembatan/internal/history"
	"codeberg.org/snonux/jembatan/internal/i18n"
	"codeberg.org/snonux/jembatan/internal/provider"
	"codeberg.org/snonux/jembatan/internal/server"
	"codeberg.org/snonux/jembatan/internal/settings"
	"codeberg.org/snonux/jembatan/internal/speech"
)

// historyStore opens the history database on first use
func (p *Processor) historyStore() (HistoryStore, error) {
	if p.history != nil {
		return p.history, nil
	}
	store, err := history.Open(p.config.HistoryPath, p.logger)
	if err != nil {
		return nil, err
	}
	p.history = store
	p.closers = append(p.closers, store)
	return store, nil
}

// Serve runs the HTTP API until ctx is done or the process is interrupted
func (p *Processor) Serve(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := p.historyStore()
	if err != nil {
		return err
	}

	h := handler.New(handler.Config{
		Translator:       p.translator,
		Settings:         p.settings,
		History:          store,
		DefaultDirection: p.config.Direction,
		Logger:           p.logger,
	})
	return server.NewHTTPServer(h, store, p.logger, p.config.ServerPort).Start(ctx)
}

// ShowSettings prints the stored provider selection with masked API keys
func (p *Processor) ShowSettings() error {
	s := settings.Load(p.settings)

	fmt.Fprintf(p.out, "Settings file: %s\n", p.settings.Path())
	fmt.Fprintf(p.out, "Provider: %s (%s)\n", s.Provider.DisplayName(), s.Provider)
	fmt.Fprintf(p.out, "Auto mode: %t\n", s.AutoMode)
	for _, id := range provider.PaidIDs {
		key := settings.MaskKey(s.APIKeys[id])
		if key == "" {
			key = "-"
		}
		fmt.Fprintf(p.out, "API key %s: %s\n", id.DisplayName(), key)
	}
	return nil
}

// SetProvider stores id as the active provider. apiKey replaces the stored
// key of id when given.
func (p *Processor) SetProvider(id provider.ID, apiKey string) error {
	s := settings.Load(p.settings)
	if apiKey != "" {
		s.APIKeys[id] = apiKey
	}
	s.Provider = id
	s.AutoMode = id.IsAuto()

	if err := settings.Save(p.settings, s); err != nil {
		if errors.Is(err, settings.ErrAPIKeyRequired) {
			return errors.New(i18n.T(settings.MsgAPIKeyRequired, id.DisplayName()))
		}
		return err
	}
	if err := p.settings.Write(); err != nil {
		return err
	}

	fmt.Fprintln(p.out, i18n.T(settings.MsgSaved))
	if s.AutoMode {
		fmt.Fprintln(p.out, i18n.T(settings.MsgSavedAuto))
	} else {
		fmt.Fprintln(p.out, i18n.T(settings.MsgSavedProvider, id.DisplayName()))
	}
	return nil
}

// ListHistory prints the saved translations of the user, newest first
func (p *Processor) ListHistory(ctx context.Context, limit int) error {
	store, err := p.userHistory()
	if err != nil {
		return err
	}

	entries, err := store.List(ctx, p.flags.User, limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(p.out, i18n.T("Belum ada riwayat terjemahan"))
		return nil
	}

	fmt.Fprintln(p.out, i18n.N("%d terjemahan", "%d terjemahan", len(entries), len(entries)))
	for _, e := range entries {
		fmt.Fprintf(p.out, "%s  %s  [%s] %s -> %s",
			e.ID, e.CreatedAt.Local().Format("2006-01-02 15:04"), e.JLPTLevel, e.InputText, e.OutputText)
		if e.Romaji != "" {
			fmt.Fprintf(p.out, " (%s)", e.Romaji)
		}
		fmt.Fprintln(p.out)
	}
	return nil
}

// DeleteHistory removes one saved translation of the user
func (p *Processor) DeleteHistory(ctx context.Context, id string) error {
	store, err := p.userHistory()
	if err != nil {
		return err
	}

	if err := store.Delete(ctx, p.flags.User, id); err != nil {
		return err
	}
	fmt.Fprintln(p.out, i18n.T("Riwayat %s dihapus", id))
	return nil
}

// ExportHistory writes all saved translations of the user as YAML to file,
// or to the output when file is "-"
func (p *Processor) ExportHistory(ctx context.Context, file string) error {
	store, err := p.userHistory()
	if err != nil {
		return err
	}

	entries, err := store.List(ctx, p.flags.User, 0)
	if err != nil {
		return err
	}

	var w io.Writer = p.out
	if file != "-" {
		f, err := os.Create(file)
		if err != nil {
			return fmt.Errorf("failed to create export file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if err := history.WriteYAML(w, p.flags.User, entries); err != nil {
		return err
	}
	if file != "-" {
		fmt.Fprintf(p.errOut, "Exported %d entries to %s\n", len(entries), file)
	}
	return nil
}

// ExportAnki writes the saved translations of the user as an Anki deck.
// Audio generated with --speak is referenced and, with mediaDir, copied.
func (p *Processor) ExportAnki(ctx context.Context, file, mediaDir string) error {
	store, err := p.userHistory()
	if err != nil {
		return err
	}

	entries, err := store.List(ctx, p.flags.User, 0)
	if err != nil {
		return err
	}

	opts := anki.DefaultGeneratorOptions()
	opts.AudioDir = p.config.Audio.OutputDir
	opts.AudioName = func(text string) string {
		return internal.AudioFileName(text, p.config.Audio.Format)
	}
	gen := anki.NewGenerator(opts)
	gen.AddEntries(entries)

	if err := gen.GenerateCSV(file); err != nil {
		return err
	}

	total, withAudio := gen.Stats()
	fmt.Fprintf(p.out, "Anki deck created: %s (%d cards, %d with audio)\n", file, total, withAudio)

	if mediaDir != "" {
		n, err := gen.CopyMedia(mediaDir)
		if err != nil {
			return err
		}
		fmt.Fprintf(p.out, "Copied %d audio files to %s\n", n, mediaDir)
	}
	return nil
}

func (p *Processor) userHistory() (HistoryStore, error) {
	if p.flags.User == "" {
		return nil, errors.New(i18n.T(history.MsgLoginRequired))
	}
	return p.historyStore()
}

// ListProviders prints every provider with its tier, marking the active one
func (p *Processor) ListProviders() error {
	active := settings.DefaultProvider
	if p.settings != nil {
		active = settings.NewResolver(p.settings).ResolveActiveProvider().Provider
	}
	if p.config.Provider != "" {
		active = p.config.Provider
	}

	ids := append([]provider.ID{provider.Auto}, provider.FreeIDs...)
	ids = append(ids, provider.PaidIDs...)
	for _, id := range ids {
		marker := " "
		if id == active {
			marker = "*"
		}

		tier := "free"
		switch {
		case id.IsAuto():
			tier = "auto"
		case id.IsPaid():
			tier = "paid"
			if p.hasKey(id) {
				tier += ", API key set"
			}
		}
		fmt.Fprintf(p.out, "%s %-15s %-16s %s\n", marker, id, id.DisplayName(), tier)
	}
	return nil
}

func (p *Processor) hasKey(id provider.ID) bool {
	if p.credentials[id] != "" {
		return true
	}
	return p.settings != nil && settings.Load(p.settings).APIKeys[id] != ""
}

// ArchiveAudio moves the generated audio into the archive directory
func (p *Processor) ArchiveAudio() error {
	archived, err := archive.ArchiveDir(p.config.Audio.OutputDir)
	if err != nil {
		return fmt.Errorf("failed to archive audio: %w", err)
	}
	fmt.Fprintf(p.out, "Audio directory archived to: %s\n", archived)
	return nil
}

// AudioCache prints the size of the text-to-speech cache, or clears it
func (p *Processor) AudioCache(clearCache bool) error {
	dir := p.config.Audio.CacheDir
	if clearCache {
		if err := speech.ClearCache(dir); err != nil {
			return fmt.Errorf("failed to clear audio cache: %w", err)
		}
		fmt.Fprintf(p.out, "Audio cache cleared: %s\n", dir)
		return nil
	}

	count, size, err := speech.CacheStats(dir)
	if err != nil {
		return fmt.Errorf("failed to read audio cache: %w", err)
	}
	fmt.Fprintf(p.out, "Audio cache %s: %d files, %.1f KiB\n", dir, count, float64(size)/1024)
	return nil
}
