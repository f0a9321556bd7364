package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"crptapi/internal/config"
	"crptapi/internal/crpt"
	"crptapi/internal/logging"
	"crptapi/internal/model"
)

// DocumentCommandHandler runs the document sub-commands.
type DocumentCommandHandler struct {
	cfg       config.CRPTConfig
	logger    *slog.Logger
	out       io.Writer
	newClient func(config.CRPTConfig) (crpt.DocumentCreator, error)
}

// NewDocumentCommandHandler builds a handler from the environment configuration.
func NewDocumentCommandHandler(out io.Writer) *DocumentCommandHandler {
	cfg := config.Load()
	return &DocumentCommandHandler{
		cfg:    cfg.CRPT,
		logger: logging.NewStructuredLogger(os.Stderr, logging.ParseLevel(cfg.Logger.Level)),
		out:    out,
		newClient: func(c config.CRPTConfig) (crpt.DocumentCreator, error) {
			return crpt.NewFromConfig(c)
		},
	}
}

// InitDocumentCommands registers submit, sample and validate on rootCmd.
func InitDocumentCommands(rootCmd *cobra.Command) {
	NewDocumentCommandHandler(os.Stdout).register(rootCmd)
}

func (h *DocumentCommandHandler) register(rootCmd *cobra.Command) {
	submitCmd := &cobra.Command{
		Use:   "submit",
		Short: "Create a document in CRPT (the sample document unless --file is given)",
		RunE:  h.SubmitCmd,
	}
	submitCmd.Flags().String("file", "", "Path to a JSON or YAML document")
	submitCmd.Flags().Int("count", 1, "Number of concurrent submissions sharing one rate limiter")
	submitCmd.Flags().Int("limit", 0, "Requests per time unit (overrides CRPT_REQUEST_LIMIT)")
	submitCmd.Flags().String("unit", "", "Time unit, e.g. SECONDS or 1m (overrides CRPT_TIME_UNIT)")
	submitCmd.Flags().String("token", "", "Bearer token (overrides CRPT_TOKEN)")
	submitCmd.Flags().String("base-url", "", "ISMP base URL (overrides CRPT_BASE_URL)")
	rootCmd.AddCommand(submitCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "sample",
		Short: "Print the sample document as JSON",
		RunE:  h.SampleCmd,
	})

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a JSON or YAML document without submitting it",
		RunE:  h.ValidateCmd,
	}
	validateCmd.Flags().String("file", "", "Path to a JSON or YAML document")
	_ = validateCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(validateCmd)
}

// SampleCmd prints the sample document.
func (h *DocumentCommandHandler) SampleCmd(_ *cobra.Command, _ []string) error {
	enc := json.NewEncoder(h.out)
	enc.SetIndent("", "  ")
	return enc.Encode(model.SampleDocument())
}

// ValidateCmd checks a document file.
func (h *DocumentCommandHandler) ValidateCmd(cmd *cobra.Command, _ []string) error {
	path, err := cmd.Flags().GetString("file")
	if err != nil {
		return fmt.Errorf("invalid file flag: %w", err)
	}
	doc, err := readDocument(path)
	if err != nil {
		return err
	}
	if err := doc.Validate(); err != nil {
		return err
	}
	fmt.Fprintf(h.out, "document %s is valid\n", doc.DocID)
	return nil
}

// SubmitCmd sends the document --count times concurrently through one client,
// so submissions beyond the limit wait for their slot.
func (h *DocumentCommandHandler) SubmitCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := h.overrides(cmd)
	if err != nil {
		return err
	}
	count, err := cmd.Flags().GetInt("count")
	if err != nil {
		return fmt.Errorf("invalid count flag: %w", err)
	}
	if count < 1 {
		return fmt.Errorf("count must be at least 1")
	}

	path, _ := cmd.Flags().GetString("file")
	doc := model.SampleDocument()
	if path != "" {
		if doc, err = readDocument(path); err != nil {
			return err
		}
	}
	if err := doc.Validate(); err != nil {
		return err
	}

	client, err := h.newClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to create crpt client: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for i := 1; i <= count; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			res, err := client.CreateDocument(ctx, doc)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logging.LogError(h.logger, "document_submit_failed", err, slog.Int("attempt", n), slog.String("doc_id", doc.DocID))
				errs = append(errs, fmt.Errorf("attempt %d: %w", n, err))
				return
			}
			fmt.Fprintf(h.out, "attempt %d: document %s accepted (HTTP %d)\n", n, doc.DocID, res.StatusCode)
		}(i)
	}
	wg.Wait()

	return errors.Join(errs...)
}

func (h *DocumentCommandHandler) overrides(cmd *cobra.Command) (config.CRPTConfig, error) {
	cfg := h.cfg
	if v, _ := cmd.Flags().GetInt("limit"); v != 0 {
		cfg.RequestLimit = v
	}
	if v, _ := cmd.Flags().GetString("unit"); v != "" {
		cfg.TimeUnit = v
	}
	if v, _ := cmd.Flags().GetString("token"); v != "" {
		cfg.Token = v
	}
	if v, _ := cmd.Flags().GetString("base-url"); v != "" {
		cfg.BaseURL = v
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func readDocument(path string) (*model.Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	var doc model.Document
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &doc)
	default:
		err = json.Unmarshal(b, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("decode document %s: %w", path, err)
	}
	return &doc, nil
}
