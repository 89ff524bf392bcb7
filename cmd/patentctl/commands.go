package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"patentai/internal/generation"
	"patentai/internal/logger"
	"patentai/internal/markup"
	"patentai/internal/patent"
	"patentai/internal/session"
	"patentai/internal/streamclient"
)

type rootOptions struct {
	server      string
	sessionPath string
	logMode     string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "patentctl",
		Short: "PatentAI command line client",
		Long: `patentctl fills in the invention form, streams a patent draft from a running gateway
and keeps the draft in a local session file between steps.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.server, "server", envOr("PATENTAI_SERVER", "http://localhost:8081"), "Gateway base URL")
	cmd.PersistentFlags().StringVar(&opts.sessionPath, "session", envOr("PATENTAI_SESSION", ".patentai-session.json"), "Session file")
	cmd.PersistentFlags().StringVar(&opts.logMode, "log", "production", "Log mode: production or development")
	cmd.AddCommand(
		newFormCmd(opts),
		newGenerateCmd(opts),
		newOfficesCmd(),
		newNormalizeCmd(),
		newSessionCmd(opts),
	)
	return cmd
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func (o *rootOptions) openSession() (*session.FileStore, error) {
	return session.OpenFileStore(o.sessionPath)
}

func (o *rootOptions) logger() *logger.Logger {
	l, err := logger.New(o.logMode)
	if err != nil {
		return logger.Nop()
	}
	return l
}

func newFormCmd(opts *rootOptions) *cobra.Command {
	var d patent.InventionDisclosure
	var officeID, file string
	cmd := &cobra.Command{
		Use:   "form",
		Short: "Store the invention and target office in the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			office, ok := patent.LookupOffice(officeID)
			if !ok {
				return fmt.Errorf("unknown office %q", officeID)
			}
			req := patent.GenerationRequest{Invention: patent.FromDisclosure(d), Office: office}
			if file != "" {
				data, err := os.ReadFile(file)
				if err != nil {
					return err
				}
				doc, err := patent.InspectDocument(file, data)
				if err != nil {
					return err
				}
				req.Invention = patent.FromDocument(doc)
			}
			if err := req.Validate(); err != nil {
				return err
			}
			store, err := opts.openSession()
			if err != nil {
				return err
			}
			if err := session.SaveRequest(store, req); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stored invention for %s in %s\n", office.Name, opts.sessionPath)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&d.Title, "title", "", "Invention title")
	f.StringVar(&d.Problem, "problem", "", "Problem statement")
	f.StringVar(&d.Solution, "solution", "", "Solution")
	f.StringVar(&d.TechnicalDescription, "technical", "", "Technical description")
	f.StringVar(&d.Advantages, "advantages", "", "Advantages")
	f.StringVar(&d.DrawingsDescription, "drawings", "", "Description of the drawings")
	f.StringVar(&d.PriorArt, "prior-art", "", "Known prior art")
	f.StringVar(&d.Inventors, "inventors", "", "Inventors")
	f.StringVar(&d.Assignee, "assignee", "", "Assignee")
	f.StringVar(&officeID, "office", "uspto", "Target office id")
	f.StringVar(&file, "file", "", "Upload a disclosure document instead of the fields")
	return cmd
}

func newGenerateCmd(opts *rootOptions) *cobra.Command {
	var format, out string
	var save bool
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Stream a patent draft for the stored invention",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := patent.ParseFormat(format)
			if err != nil {
				return err
			}
			store, err := opts.openSession()
			if err != nil {
				return err
			}
			req, err := session.LoadRequest(store)
			if errors.Is(err, session.ErrNoRequest) {
				return errors.New("no invention stored; run patentctl form first")
			}
			if err != nil {
				return err
			}
			req.Format = f

			log := opts.logger()
			defer log.Sync()
			client := streamclient.New(opts.server, log)
			progress := cmd.ErrOrStderr()
			outcome, err := streamclient.NewRun(client).Start(cmd.Context(), req, func(e generation.Event, _ *streamclient.Tracker) {
				switch e.Type {
				case generation.EventSectionStart:
					fmt.Fprintf(progress, "generating %s...\n", e.Section)
				case generation.EventSectionComplete:
					if e.Warning {
						fmt.Fprintf(progress, "%s completed with a warning\n", e.Section)
					}
				}
			})
			if err != nil {
				return err
			}

			if err := session.SaveGenerated(store, outcome.Document); err != nil {
				return err
			}
			if save {
				if err := session.SaveDraft(store, outcome.Document, time.Now()); err != nil {
					return err
				}
			}
			if out != "" {
				if err := os.WriteFile(out, []byte(outcome.Document+"\n"), 0o644); err != nil {
					return err
				}
				fmt.Fprintf(progress, "run %s written to %s\n", outcome.RunID, out)
				return nil
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), outcome.Document)
			return err
		},
	}
	cmd.Flags().StringVar(&format, "format", "markdown", "Output format requested from the model: text, markdown or html")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write the document to a file instead of stdout")
	cmd.Flags().BoolVar(&save, "save", false, "Also save the document as the session draft")
	return cmd
}

func newOfficesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "offices",
		Short: "List the supported patent offices",
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tCOVERAGE\tPROCESSING\tCOST")
			for _, o := range patent.Offices() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", o.ID, o.Name, o.Coverage, o.ProcessingTime, o.Cost)
			}
			return tw.Flush()
		},
	}
}

func newNormalizeCmd() *cobra.Command {
	var asHTML bool
	cmd := &cobra.Command{
		Use:   "normalize [file]",
		Short: "Convert model markup to editor markdown (stdin when no file)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			raw, err := io.ReadAll(in)
			if err != nil {
				return err
			}
			text := markup.ToPortableMarkup(string(raw))
			if asHTML {
				if text, err = markup.ToHTML(text); err != nil {
					return err
				}
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
			return err
		},
	}
	cmd.Flags().BoolVar(&asHTML, "html", false, "Render the normalized markdown as HTML")
	return cmd
}

func newSessionCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect or change the local session",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print every stored key",
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := opts.openSession()
				if err != nil {
					return err
				}
				keys, err := store.Keys()
				if err != nil {
					return err
				}
				out := make(map[string]json.RawMessage, len(keys))
				for _, k := range keys {
					if v, ok, err := store.Get(k); err != nil {
						return err
					} else if ok {
						out[k] = v
					}
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			},
		},
		&cobra.Command{
			Use:   "save",
			Short: "Save the last generated document as the draft",
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := opts.openSession()
				if err != nil {
					return err
				}
				var doc string
				ok, err := session.Load(store, session.KeyGeneratedPatent, &doc)
				if err != nil {
					return err
				}
				if !ok {
					return errors.New("nothing generated yet")
				}
				now := time.Now()
				if err := session.SaveDraft(store, doc, now); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "draft saved at %s\n", now.UTC().Format(time.RFC3339))
				return nil
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Remove every stored key",
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := opts.openSession()
				if err != nil {
					return err
				}
				keys, err := store.Keys()
				if err != nil {
					return err
				}
				for _, k := range keys {
					if err := store.Delete(k); err != nil {
						return err
					}
				}
				return nil
			},
		},
	)
	return cmd
}
