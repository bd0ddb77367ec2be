package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"goods-be/internal/catalog"
	"goods-be/internal/db"
	"goods-be/internal/feed"
	"goods-be/internal/shop"
	"goods-be/internal/user"

	"github.com/spf13/cobra"
)

var ErrNoSource = errors.New("exactly one of --file or --url is required")

type importOptions struct {
	owner string
	file  string
	url   string
}

func newImportCommand() *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a YAML catalog feed for a shop owner",
		Long: `Import reads a catalog feed from a local file or a URL and replaces the
offers of the owner's shop, exactly as the partner update endpoint does.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if (opts.file == "") == (opts.url == "") {
				return ErrNoSource
			}

			cfg, database, err := connect()
			if err != nil {
				return err
			}
			defer database.Close()

			shopRepo := shop.NewRepository(database)
			svc := catalog.NewService(db.NewTxRunner(database), catalog.NewRepository(database), shopRepo)

			load := func(ctx context.Context) (*catalog.Feed, error) {
				if opts.url != "" {
					return feed.NewFetcher(cfg.FeedTimeout, cfg.FeedMaxBytes).Fetch(ctx, opts.url)
				}
				return readFeedFile(opts.file)
			}
			return runImport(cmd.Context(), user.NewRepository(database), svc, load, opts.owner, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.owner, "owner", "", "email of the shop owner account")
	cmd.Flags().StringVar(&opts.file, "file", "", "path to a YAML feed")
	cmd.Flags().StringVar(&opts.url, "url", "", "http(s) URL of a YAML feed")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

func readFeedFile(path string) (*catalog.Feed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return feed.Parse(f)
}

func runImport(
	ctx context.Context,
	users user.Repository,
	svc catalog.Service,
	load func(context.Context) (*catalog.Feed, error),
	owner string,
	out io.Writer,
) error {
	u, err := users.FindByEmail(ctx, owner)
	if err != nil {
		return fmt.Errorf("owner %s: %w", owner, err)
	}
	if u.Type != user.TypeShop {
		return fmt.Errorf("owner %s: %w", owner, shop.ErrNotShopUser)
	}

	f, err := load(ctx)
	if err != nil {
		return err
	}

	res, err := svc.ImportShop(ctx, u.ID, *f)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "shop %q imported as id %d\n", res.Shop, res.ShopID)
	fmt.Fprintf(out, "categories: %d, offers: %d\n", len(res.CategoryIDs), len(res.ProductIDs))
	for _, ext := range sortedKeys(res.ProductIDs) {
		fmt.Fprintf(out, "  %d -> %d\n", ext, res.ProductIDs[ext])
	}
	return nil
}

func sortedKeys(m map[int64]int64) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
