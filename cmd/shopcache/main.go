// Command shopcache reads and changes storefront data through the shared query cache.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/n-r-w/shopcache"
	"github.com/n-r-w/shopcache/apiclient"
	"github.com/n-r-w/shopcache/hooks"
	"github.com/n-r-w/shopcache/internal/config"
	"github.com/n-r-w/shopcache/metrics"
	"github.com/n-r-w/shopcache/persist"
	"github.com/n-r-w/shopcache/tokenstore"
	"github.com/prometheus/client_golang/prometheus"
)

const usage = `usage: shopcache <command> [args]

commands:
  categories
  products [-featured] [-category c] [-sort s] [-limit n]
  cart
  cart-add -product id [-qty n] [-size s] [-color c]
  cart-update <itemId> <quantity>
  cart-remove <itemId>
  wishlist
  wishlist-toggle <productId>
  track <trackingId>
  reviews <productId>
  review -product id -rating n -comment text [-title t]
  subscribe <email>
  login <token>
  logout
  watch [-focus interval]
`

// tokenStore is what every tokenstore backend provides.
type tokenStore interface {
	shopcache.TokenSource
	SetToken(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

type app struct {
	cache    *shopcache.Cache
	tokens   tokenStore
	catalog  *hooks.CatalogHook
	cart     *hooks.CartHook
	wishlist *hooks.WishlistHook
	orders   *hooks.OrderTracker
	reviews  *hooks.ReviewsHook
	news     *hooks.NewsletterHook
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Args[1], os.Args[2:]); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cfg config.Config, cmd string, args []string) error {
	tokens, closeTokens, err := newTokenStore(cfg)
	if err != nil {
		return err
	}
	defer closeTokens()

	recorder, err := metrics.NewRecorder(prometheus.DefaultRegisterer, log.Default())
	if err != nil {
		return err
	}
	if cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.MetricsAddr, prometheus.DefaultGatherer); err != nil {
				log.Printf("metrics endpoint: %v", err)
			}
		}()
	}

	defaults := shopcache.DefaultQueryOptions()
	defaults.Retry = cfg.Retry
	defaults.StaleTime = cfg.StaleTime()

	cache, err := shopcache.New(cfg.CacheMaxEntries,
		shopcache.WithLogger("shopcache", recorder),
		shopcache.WithQueryDefaults(defaults))
	if err != nil {
		return err
	}

	snapshots, err := newSnapshotStore(ctx, cfg)
	if err != nil {
		cache.Close()

		return err
	}
	if snapshots != nil {
		if err := persist.Restore(ctx, cache, snapshots); err != nil {
			log.Printf("restore snapshot: %v", err)
		}
	}

	deps := hooks.Deps{
		Cache:    cache,
		Executor: shopcache.NewExecutor(cache, tokens, shopcache.WithLogger("shopcache", recorder)),
		API: apiclient.NewClient(cfg.APIBaseURL,
			apiclient.WithTimeout(cfg.HTTPTimeout()),
			apiclient.WithUserAgent(cfg.UserAgent)),
		Tokens: tokens,
	}
	a := &app{
		cache:    cache,
		tokens:   tokens,
		catalog:  hooks.NewCatalog(deps),
		cart:     hooks.NewCart(deps),
		wishlist: hooks.NewWishlist(deps),
		orders:   hooks.NewOrderTracker(deps),
		reviews:  hooks.NewReviews(deps),
		news:     hooks.NewNewsletter(deps),
	}

	runErr := a.dispatch(ctx, cmd, args)

	if snapshots != nil {
		// the command context may already be cancelled
		saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		if err := persist.Save(saveCtx, cache, snapshots); err != nil {
			log.Printf("save snapshot: %v", err)
		}
		cancel()
	}
	cache.Close()

	return runErr
}

func newTokenStore(cfg config.Config) (tokenStore, func(), error) {
	switch cfg.TokenBackend {
	case config.TokenMemory:
		return tokenstore.NewMemory(cfg.Token), func() {}, nil
	case config.TokenRedis:
		client := tokenstore.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)

		return tokenstore.NewRedis(client, cfg.RedisKey, 0), func() { _ = client.Close() }, nil
	default:
		f, err := tokenstore.NewFile(cfg.TokenFile)
		if err != nil {
			return nil, nil, err
		}

		return f, func() {}, nil
	}
}

func newSnapshotStore(ctx context.Context, cfg config.Config) (persist.Store, error) {
	switch cfg.SnapshotBackend {
	case config.SnapshotFile:
		return persist.NewFileStore(cfg.SnapshotFile), nil
	case config.SnapshotS3:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.S3Region),
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, "")),
		)
		if err != nil {
			return nil, err
		}
		client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if cfg.S3Endpoint != "" {
				o.UsePathStyle = true
				o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			}
		})

		return persist.NewS3Store(cfg.S3Bucket, cfg.S3Key, client), nil
	default:
		return nil, nil
	}
}

func (a *app) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "categories":
		return show(a.catalog.Categories(ctx))
	case "products":
		fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
		var p hooks.ProductParams
		fs.BoolVar(&p.Featured, "featured", false, "only featured products")
		fs.StringVar(&p.Category, "category", "", "category slug")
		fs.StringVar(&p.Sort, "sort", "", "sort order")
		fs.IntVar(&p.Limit, "limit", 0, "maximum number of products")
		if err := fs.Parse(args); err != nil {
			return err
		}

		return show(a.catalog.Products(ctx, p))
	case "cart":
		return show(a.cart.Get(ctx))
	case "cart-add":
		fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
		var in hooks.AddToCartInput
		fs.StringVar(&in.ProductID, "product", "", "product id")
		fs.IntVar(&in.Quantity, "qty", 1, "quantity")
		fs.StringVar(&in.Size, "size", "", "size")
		fs.StringVar(&in.Color, "color", "", "color")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if in.ProductID == "" {
			return errors.New("cart-add: -product is required")
		}
		if _, err := a.cart.Add(ctx, in); err != nil {
			return err
		}

		return show(a.cart.Get(ctx))
	case "cart-update":
		if len(args) != 2 {
			return errors.New("cart-update: want <itemId> <quantity>")
		}
		qty, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("cart-update: quantity: %w", err)
		}
		if _, err := a.cart.Update(ctx, args[0], qty); err != nil {
			return err
		}

		return show(a.cart.Get(ctx))
	case "cart-remove":
		if len(args) != 1 {
			return errors.New("cart-remove: want <itemId>")
		}
		if err := a.cart.Remove(ctx, args[0]); err != nil {
			return err
		}

		return show(a.cart.Get(ctx))
	case "wishlist":
		return show(a.wishlist.Get(ctx))
	case "wishlist-toggle":
		if len(args) != 1 {
			return errors.New("wishlist-toggle: want <productId>")
		}
		if err := a.wishlist.Toggle(ctx, args[0]); err != nil {
			return err
		}

		return show(a.wishlist.Get(ctx))
	case "track":
		if len(args) != 1 {
			return errors.New("track: want <trackingId>")
		}

		return show(a.orders.Lookup(ctx, args[0]))
	case "reviews":
		if len(args) != 1 {
			return errors.New("reviews: want <productId>")
		}

		return show(a.reviews.List(ctx, args[0]))
	case "review":
		fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
		var in hooks.ReviewInput
		fs.StringVar(&in.ProductID, "product", "", "product id")
		fs.IntVar(&in.Rating, "rating", 5, "rating from 1 to 5")
		fs.StringVar(&in.Title, "title", "", "title")
		fs.StringVar(&in.Comment, "comment", "", "comment")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if in.ProductID == "" {
			return errors.New("review: -product is required")
		}
		rev, err := a.reviews.Submit(ctx, in)
		if err != nil {
			return err
		}

		return printJSON(rev)
	case "subscribe":
		if len(args) != 1 {
			return errors.New("subscribe: want <email>")
		}

		return a.news.Subscribe(ctx, args[0])
	case "login":
		if len(args) != 1 {
			return errors.New("login: want <token>")
		}

		return a.tokens.SetToken(ctx, args[0])
	case "logout":
		if err := a.tokens.Clear(ctx); err != nil {
			return err
		}
		a.cache.Remove(hooks.CartKey())
		a.cache.Remove(hooks.WishlistKey())

		return nil
	case "watch":
		fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
		interval := fs.Duration("focus", 30*time.Second, "how often to simulate regaining focus")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *interval <= 0 {
			return errors.New("watch: -focus must be positive")
		}

		return a.watch(ctx, *interval)
	default:
		fmt.Fprint(os.Stderr, usage)

		return fmt.Errorf("unknown command %q", cmd)
	}
}

// watch prints featured products and the cart whenever they change, refreshing
// them on every tick the way a storefront refreshes on window focus.
func (a *app) watch(ctx context.Context, interval time.Duration) error {
	for _, key := range []shopcache.Key{hooks.ProductsKey(hooks.ProductParams{Featured: true, Limit: 8}), hooks.CartKey()} {
		unsubscribe, err := a.cache.Subscribe(key, func(s shopcache.Snapshot) {
			log.Printf("%s: %s", s.Key, s.Status)
		})
		if err != nil {
			return err
		}
		defer unsubscribe()
	}

	_ = show(a.catalog.Featured(ctx, 8))
	if tok, _ := a.tokens.Token(ctx); tok != "" {
		_ = show(a.cart.Get(ctx))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := a.cache.Focus(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("refresh: %v", err)
			}
		}
	}
}

func show[T any](res shopcache.Result[T]) error {
	if res.Err != nil && !res.HasData {
		return res.Err
	}
	if res.Err != nil {
		log.Printf("showing cached data: %v", res.Err)
	}

	return printJSON(res.Data)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}
