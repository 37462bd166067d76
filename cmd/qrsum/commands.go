package main

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/pders01/qrsum/internal/config"
	"github.com/pders01/qrsum/internal/feed"
	"github.com/pders01/qrsum/internal/query"
	"github.com/pders01/qrsum/internal/storage"
	"github.com/pders01/qrsum/internal/tui"
)

// queryVars are exposed as flags of the same name on the summary command.
var queryVars = []struct{ name, usage string }{
	{query.VarSearch, "search terms"},
	{query.VarM, "date as YYYY, YYYYMM or YYYYMMDD"},
	{query.VarYear, "archive year"},
	{query.VarMonth, "archive month"},
	{query.VarDay, "archive day"},
	{query.VarCategoryName, "category slug or name"},
	{query.VarCat, "alias of " + query.VarCategoryName},
	{query.VarTag, "tag slug or name"},
	{query.VarAuthorName, "author login"},
	{query.VarAuthor, "author id"},
	{query.VarPaged, "page number"},
}

func newSummaryCmd(g *globalFlags) *cobra.Command {
	var (
		raw   string
		plain bool
		list  bool
		vars  = make(map[string]*string, len(queryVars))
	)

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the summary line for a query",
		Example: "  qrsum summary --s cats\n" +
			"  qrsum summary --query 'm=202405&paged=2'\n" +
			"  qrsum summary --tag go --list",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			values, err := url.ParseQuery(strings.TrimPrefix(raw, "?"))
			if err != nil {
				return errors.Wrapf(query.ErrBadRequest, "--query: %v", err)
			}
			// Flags win over the raw query string.
			for name, v := range vars {
				if cmd.Flags().Changed(name) {
					values.Set(name, *v)
				}
			}
			req, err := query.ParseRequest(values)
			if err != nil {
				return err
			}

			e, err := g.open()
			if err != nil {
				return err
			}
			defer e.Close()

			line, res, err := e.resolver.Summary(cmd.Context(), req, e.formatter)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if plain && line != "" {
				md, err := htmltomarkdown.ConvertString(line)
				if err != nil {
					return errors.Wrap(err, "converting summary")
				}
				line = strings.TrimSpace(md)
			}
			if line != "" {
				fmt.Fprintln(out, line)
			}
			if list {
				for _, p := range res.Posts {
					fmt.Fprintf(out, "%s  %s\n", p.Published.Format("2006-01-02"), p.Title)
				}
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&raw, "query", "", "raw query string, e.g. 's=cats&paged=2'")
	f.BoolVar(&plain, "plain", false, "print the summary as markdown instead of HTML")
	f.BoolVar(&list, "list", false, "also list the posts on the page")
	for _, v := range queryVars {
		vars[v.name] = f.String(v.name, "", v.usage)
	}
	return cmd
}

func newAddCmd(g *globalFlags) *cobra.Command {
	var allowPrivate bool

	cmd := &cobra.Command{
		Use:   "add <url>",
		Short: "Follow a feed or a WordPress archive page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.open()
			if err != nil {
				return err
			}
			defer e.Close()

			e.manager.SetPermissiveValidation(allowPrivate)
			f, err := e.manager.AddFeed(cmd.Context(), args[0])
			if errors.Is(err, feed.ErrNotModified) {
				fmt.Fprintln(cmd.OutOrStdout(), "Feed not modified")
				return nil
			}
			if err != nil {
				return err
			}

			posts, err := e.store.GetArticles(f.ID, 0)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%d posts)\n", f.Title, len(posts))
			return nil
		},
	}
	cmd.Flags().BoolVar(&allowPrivate, "allow-private", false, "allow localhost and private network URLs")
	return cmd
}

func newRemoveCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <url|id>",
		Aliases: []string{"rm"},
		Short:   "Stop following a feed and drop its posts",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.open()
			if err != nil {
				return err
			}
			defer e.Close()

			f, err := e.manager.FindFeed(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := e.manager.DeleteFeed(f.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", f.Title)
			return nil
		},
	}
}

func newListCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List feeds, authors, categories, tags or plugins",
	}

	// run opens the environment and hands the output writer to fn.
	run := func(fn func(e *env, out io.Writer) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			e, err := g.open()
			if err != nil {
				return err
			}
			defer e.Close()
			return fn(e, cmd.OutOrStdout())
		}
	}

	feeds := &cobra.Command{
		Use:   "feeds",
		Short: "List followed feeds",
		Args:  cobra.NoArgs,
		RunE: run(func(e *env, out io.Writer) error {
			feeds, err := e.store.GetAllFeeds()
			if err != nil {
				return err
			}
			for _, f := range feeds {
				fmt.Fprintf(out, "%s  %s  %s\n", f.ID[:12], f.Title, f.URL)
			}
			return nil
		}),
	}

	authors := &cobra.Command{
		Use:   "authors",
		Short: "List authors with the ids and logins archive queries take",
		Args:  cobra.NoArgs,
		RunE: run(func(e *env, out io.Writer) error {
			authors, err := e.store.GetAuthors()
			if err != nil {
				return err
			}
			for _, a := range authors {
				fmt.Fprintf(out, "%d  %s  %s\n", a.ID, a.Login, a.DisplayName)
			}
			return nil
		}),
	}

	terms := func(use, taxonomy string) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: "List " + use + " with their slugs",
			Args:  cobra.NoArgs,
			RunE: run(func(e *env, out io.Writer) error {
				terms, err := e.store.GetTerms(taxonomy)
				if err != nil {
					return err
				}
				for _, t := range terms {
					fmt.Fprintf(out, "%s  %s\n", t.Slug, t.Name)
				}
				return nil
			}),
		}
	}

	plugins := &cobra.Command{
		Use:   "plugins",
		Short: "List URL plugins used by add",
		Args:  cobra.NoArgs,
		RunE: run(func(e *env, out io.Writer) error {
			for _, name := range e.manager.Plugins().Names() {
				fmt.Fprintln(out, name)
			}
			return nil
		}),
	}

	cmd.AddCommand(feeds, authors,
		terms("categories", storage.TaxonomyCategory),
		terms("tags", storage.TaxonomyTag),
		plugins,
	)
	return cmd
}

func newRefreshCmd(g *globalFlags) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Refetch every followed feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := g.open()
			if err != nil {
				return err
			}
			defer e.Close()

			e.manager.SetForceRefresh(force)
			n, err := e.manager.RefreshAllFeeds(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), tui.MsgRefreshSummary(n))
			return err
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "ignore the refresh interval and cache headers")
	return cmd
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	var path string
	generate := &cobra.Command{
		Use:   "generate",
		Short: "Write the default configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if path == "" {
				path = config.DefaultPath()
			}
			if err := config.GenerateDefaultConfig(path); err != nil {
				return errors.Wrap(err, "generating config")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Generated default configuration at: %s\n", path)
			return nil
		},
	}
	generate.Flags().StringVarP(&path, "output", "o", "", "where to write the file")

	cmd.AddCommand(generate)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, tui.Banner(Version))
			fmt.Fprintf(out, "qrsum %s\n", Version)
			fmt.Fprintln(out, "github.com/pders01/qrsum")
		},
	}
}
