// Package main provides the dictd CLI entry point: a terminal front end
// over the Term Store, Graph Engine, Dictionary Resolver and Validator
// for local inspection and scripted loading, the same role the
// teacher's cmd/nornicdb plays over the graph database proper.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/orneryd/dictionarydb/internal/dictionary"
	"github.com/orneryd/dictionarydb/internal/engine"
	"github.com/orneryd/dictionarydb/internal/graph"
	"github.com/orneryd/dictionarydb/internal/term"
	"github.com/orneryd/dictionarydb/internal/validator"
	"github.com/orneryd/dictionarydb/pkg/config"
	"github.com/orneryd/dictionarydb/pkg/store"
)

var version = "0.1.0"

// env bundles the components a subcommand needs, built once from the
// resolved Config and torn down by the caller with Close.
type env struct {
	cfg       *config.Config
	st        store.Store
	terms     *term.Store
	graph     *graph.Graph
	eng       *engine.Engine
	resolver  *dictionary.Resolver
	validator *validator.Validator
}

func (e *env) close() error {
	return e.st.Close()
}

func openEnv(cfg *config.Config) (*env, error) {
	var st store.Store
	switch cfg.Storage.Backend {
	case "memory":
		st = store.NewMemoryStore()
	case "badger":
		bs, err := store.NewBadgerStoreWithOptions(store.BadgerOptions{DataDir: cfg.Storage.DataDir, SyncWrites: cfg.Storage.SyncWrites})
		if err != nil {
			return nil, fmt.Errorf("opening badger store at %s: %w", cfg.Storage.DataDir, err)
		}
		st = bs
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	terms := term.New(st, cfg.Naming.CollectionTerm)
	g := graph.New(st, cfg.Validation.MaxDepth)
	eng := engine.New(st, terms, cfg.Validation.MaxDepth)
	resolver := dictionary.New(terms, g, nil)
	v := validator.New(terms, resolver)

	return &env{cfg: cfg, st: st, terms: terms, graph: g, eng: eng, resolver: resolver, validator: v}, nil
}

func main() {
	var dataDir, backend, configFile string

	rootCmd := &cobra.Command{
		Use:   "dictd",
		Short: "dictd - data dictionary and schema validation engine",
		Long: `dictd is a terminal front end over the dictionary engine:
term storage, the multi-path graph of relationships between terms, and
schema validation against a term's data definition.`,
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "./data", "storage data directory (badger backend only)")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", "memory", "storage backend: memory or badger")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to a YAML config file overlaying the environment defaults")

	loadConfig := func() (*config.Config, error) {
		var cfg *config.Config
		var err error
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg = config.LoadFromEnv()
		}
		if err != nil {
			return nil, err
		}
		if backend != "" {
			cfg.Storage.Backend = backend
		}
		if dataDir != "" {
			cfg.Storage.DataDir = dataDir
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("dictd v%s\n", version)
		},
	})

	rootCmd.AddCommand(newTermCmd(loadConfig))
	rootCmd.AddCommand(newGraphCmd(loadConfig))
	rootCmd.AddCommand(newDictionaryCmd(loadConfig))
	rootCmd.AddCommand(newValidateCmd(loadConfig))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func readDocument(path string) (store.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return store.Document(doc), nil
}

func readValue(path string) (any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var value any
	if err := yaml.Unmarshal(raw, &value); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return value, nil
}

func printYAML(v any) error {
	out, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	fmt.Print(string(out))
	return nil
}

// ---- term ----

func newTermCmd(loadConfig func() (*config.Config, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "term",
		Short: "Inspect and load terms",
	}

	getCmd := &cobra.Command{
		Use:   "get [handle]",
		Short: "Fetch a term by handle (_lid)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			e, err := openEnv(cfg)
			if err != nil {
				return err
			}
			defer e.close()

			doc, err := e.terms.Get(args[0])
			if err != nil {
				return err
			}
			return printYAML(doc)
		},
	}
	cmd.AddCommand(getCmd)

	insertCmd := &cobra.Command{
		Use:   "insert [file]",
		Short: "Insert a term document loaded from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			e, err := openEnv(cfg)
			if err != nil {
				return err
			}
			defer e.close()

			doc, err := readDocument(args[0])
			if err != nil {
				return err
			}
			if err := e.terms.Insert(doc); err != nil {
				return err
			}
			fmt.Printf("inserted term %v\n", doc[term.FieldLID])
			return nil
		},
	}
	cmd.AddCommand(insertCmd)

	var namespace, titleContains string
	queryCmd := &cobra.Command{
		Use:   "query",
		Short: "Query terms by namespace and title substring",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			e, err := openEnv(cfg)
			if err != nil {
				return err
			}
			defer e.close()

			docs, err := e.terms.Query(term.Filter{Namespace: namespace, TitleContains: titleContains}, term.Pagination{Limit: 1000})
			if err != nil {
				return err
			}
			return printYAML(docs)
		},
	}
	queryCmd.Flags().StringVar(&namespace, "namespace", "", "restrict to terms whose _nid equals this namespace")
	queryCmd.Flags().StringVar(&titleContains, "title-contains", "", "case-sensitive _title substring filter")
	cmd.AddCommand(queryCmd)

	return cmd
}

// ---- graph ----

func newGraphCmd(loadConfig func() (*config.Config, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Inspect the multi-path edge graph",
	}

	var predicate string
	var maxLevels int

	descendantsCmd := &cobra.Command{
		Use:   "descendants [root]",
		Short: "List every handle reachable from root along predicate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			e, err := openEnv(cfg)
			if err != nil {
				return err
			}
			defer e.close()

			handles, err := e.graph.Descendants(context.Background(), args[0], predicate)
			if err != nil {
				return err
			}
			return printYAML(handles)
		},
	}
	descendantsCmd.Flags().StringVar(&predicate, "predicate", dictionary.PredicateEnum, "functional predicate to follow")
	cmd.AddCommand(descendantsCmd)

	treeCmd := &cobra.Command{
		Use:   "tree [root]",
		Short: "Print the traversal tree rooted at root",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			e, err := openEnv(cfg)
			if err != nil {
				return err
			}
			defer e.close()

			tree, err := e.graph.Tree(context.Background(), args[0], predicate, maxLevels)
			if err != nil {
				return err
			}
			return printYAML(tree)
		},
	}
	treeCmd.Flags().StringVar(&predicate, "predicate", dictionary.PredicateEnum, "functional predicate to follow")
	treeCmd.Flags().IntVar(&maxLevels, "max-levels", 0, "maximum depth (0: the configured validation max depth, which also caps larger values)")
	cmd.AddCommand(treeCmd)

	var direction bool
	reachableCmd := &cobra.Command{
		Use:   "reachable [root] [parent]",
		Short: "Check whether parent is reachable from root along predicate",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			e, err := openEnv(cfg)
			if err != nil {
				return err
			}
			defer e.close()

			ok, err := e.graph.Reachable(context.Background(), args[0], args[1], predicate, direction, nil)
			if err != nil {
				return err
			}
			fmt.Println(ok)
			return nil
		},
	}
	reachableCmd.Flags().StringVar(&predicate, "predicate", dictionary.PredicateEnum, "functional predicate to follow")
	reachableCmd.Flags().BoolVar(&direction, "direction", true, "set-edges direction convention the checked edges were written under")
	cmd.AddCommand(reachableCmd)

	return cmd
}

// ---- dictionary ----

func newDictionaryCmd(loadConfig func() (*config.Config, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dictionary",
		Short: "Resolve terms and enumerations through the Dictionary Resolver",
	}

	var field, namespace string
	resolveCmd := &cobra.Command{
		Use:   "resolve [ref]",
		Short: "Resolve a code value to a term handle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			e, err := openEnv(cfg)
			if err != nil {
				return err
			}
			defer e.close()

			doc, matches, err := e.resolver.ResolveTerm(args[0], field, namespace)
			if err != nil {
				return err
			}
			fmt.Printf("matches: %d\n", matches)
			if doc != nil {
				return printYAML(doc)
			}
			return nil
		},
	}
	resolveCmd.Flags().StringVar(&field, "field", "", "code field to resolve against (default: try every candidate field)")
	resolveCmd.Flags().StringVar(&namespace, "namespace", "", "restrict resolution to terms whose _nid equals this namespace")
	cmd.AddCommand(resolveCmd)

	enumCmd := &cobra.Command{
		Use:   "enum [root]",
		Short: "List the enumeration keys under root",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			e, err := openEnv(cfg)
			if err != nil {
				return err
			}
			defer e.close()

			keys, err := e.resolver.EnumerationKeys(context.Background(), args[0])
			if err != nil {
				return err
			}
			return printYAML(keys)
		},
	}
	cmd.AddCommand(enumCmd)

	return cmd
}

// ---- validate ----

func newValidateCmd(loadConfig func() (*config.Config, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Run the Validator against a descriptor, a raw definition, or a term object",
	}

	var language string
	var useCache, cacheMissed, expectTerms, expectTypes, allowDefaultNS, resolve bool
	var resolveField string

	opts := func() validator.Options {
		o := validator.DefaultOptions()
		o.UseCache = useCache
		o.CacheMissed = cacheMissed
		o.ExpectTerms = expectTerms
		o.ExpectTypes = expectTypes
		o.AllowDefaultNamespace = allowDefaultNS
		o.Resolve = resolve
		if resolveField != "" {
			o.ResolveField = resolveField
		}
		return o
	}

	addValidationFlags := func(c *cobra.Command) {
		c.Flags().StringVar(&language, "language", "en", "language tag passed to the validator; no validator check reads it")
		c.Flags().BoolVar(&useCache, "use-cache", true, "cache resolved terms within this call")
		c.Flags().BoolVar(&cacheMissed, "cache-missed", true, "cache lookup misses within this call")
		c.Flags().BoolVar(&expectTerms, "expect-terms", true, "reject object properties with no matching term")
		c.Flags().BoolVar(&expectTypes, "expect-types", false, "require every scalar definition to declare _type")
		c.Flags().BoolVar(&allowDefaultNS, "allow-default-namespace", false, "sets Options.AllowDefaultNamespace; no validator check reads it")
		c.Flags().BoolVar(&resolve, "resolve", false, "resolve unmatched string_enum values via resolve-field before failing")
		c.Flags().StringVar(&resolveField, "resolve-field", "", "field resolve falls back to (default: _lid)")
	}

	descriptorCmd := &cobra.Command{
		Use:   "descriptor [gid] [value-file]",
		Short: "Validate a value against the data definition of the descriptor named by gid",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			e, err := openEnv(cfg)
			if err != nil {
				return err
			}
			defer e.close()

			value, err := readValue(args[1])
			if err != nil {
				return err
			}
			report := e.validator.ValidateDescriptor(context.Background(), args[0], value, language, opts())
			return printYAML(report)
		},
	}
	addValidationFlags(descriptorCmd)
	cmd.AddCommand(descriptorCmd)

	definitionCmd := &cobra.Command{
		Use:   "definition [definition-file] [value-file]",
		Short: "Validate a value against a raw data definition document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			e, err := openEnv(cfg)
			if err != nil {
				return err
			}
			defer e.close()

			def, err := readDocument(args[0])
			if err != nil {
				return err
			}
			value, err := readValue(args[1])
			if err != nil {
				return err
			}
			report := e.validator.ValidateDefinition(context.Background(), def, value, language, opts())
			return printYAML(report)
		},
	}
	addValidationFlags(definitionCmd)
	cmd.AddCommand(definitionCmd)

	objectCmd := &cobra.Command{
		Use:   "object [file]",
		Short: "Validate a term object's shape and its property values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			e, err := openEnv(cfg)
			if err != nil {
				return err
			}
			defer e.close()

			obj, err := readDocument(args[0])
			if err != nil {
				return err
			}
			report := e.validator.ValidateObject(context.Background(), obj, language, opts())
			return printYAML(report)
		},
	}
	addValidationFlags(objectCmd)
	cmd.AddCommand(objectCmd)

	return cmd
}
