package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tradeloop/marketmaker-dev/config"
	"github.com/tradeloop/marketmaker-dev/pkg/autotrader"
	"github.com/tradeloop/marketmaker-dev/pkg/autotrader/journal"
	"github.com/tradeloop/marketmaker-dev/pkg/autotrader/model"
	"github.com/tradeloop/marketmaker-dev/pkg/autotrader/repo"
	"github.com/tradeloop/marketmaker-dev/pkg/exchsim"
	"github.com/tradeloop/marketmaker-dev/pkg/infra"
	infra_redis "github.com/tradeloop/marketmaker-dev/pkg/infra/redis"
	"github.com/tradeloop/marketmaker-dev/pkg/logging"
)

func main() {
	go func() {
		http.ListenAndServe("localhost:6060", nil)
	}()

	var configFile string
	flag.StringVar(&configFile, "config-file", "", "Specify config file path")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = logging.NewSessionContext(ctx)
	log, ctx := logging.GetLogger(ctx)

	cfg, err := config.Load(configFile)
	if err != nil {
		panic(err)
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	jrn := buildJournal(ctx, cfg)
	exchange := exchsim.NewExchange(log, cfg.TakerFeeCents)
	trader := autotrader.NewTrader(cfg.Strategy, exchange, jrn, log)
	exchange.SetHandler(trader)

	go driveMarket(ctx, exchange, cfg.Strategy)

	fmt.Println("Market maker started. Press Ctrl+C to exit.")
	<-sigs
	fmt.Println("Shutting down...")

	cancel()
	if closer, ok := jrn.(interface{ Close() }); ok {
		closer.Close()
	}
	log.Sync()

	fmt.Println("Exited cleanly.")
}

// buildJournal picks the richest configured sink: database, then redis
// stream, then plain in-memory.
func buildJournal(ctx context.Context, cfg *config.AppConfig) journal.Journal {
	if cfg.JournalDB != nil {
		db, err := infra.ConnectAndMigrate(cfg.JournalDB, "file://migration/sql")
		if err != nil {
			panic(err)
		}
		return journal.NewSQLJournal(ctx, repo.NewRepo(db).OrderEvent())
	}
	if cfg.Redis != nil {
		client, err := infra_redis.InitRedis(ctx, cfg.Redis)
		if err != nil {
			panic(err)
		}
		return journal.NewRedisJournal(ctx, client, cfg.JournalStream)
	}
	return journal.NewInMemoryJournal()
}

// driveMarket feeds the simulated venue with drifting two-sided liquidity so
// the strategy has something to quote against in a local run.
func driveMarket(ctx context.Context, exchange *exchsim.Exchange, params autotrader.StrategyParams) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	mid := int64(15000)

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			mid += (rng.Int63n(3) - 1) * params.TickSize
			mid = params.ClampPrice(mid)

			for level := int64(1); level <= 3; level++ {
				bid := params.ClampPrice(mid - level*params.TickSize)
				ask := params.ClampPrice(mid + level*params.TickSize)
				volume := params.LotSize * (2 + rng.Int63n(8))

				exchange.AddLiquidity(ctx, model.InstrumentFuture, model.SideBuy, bid, volume)
				exchange.AddLiquidity(ctx, model.InstrumentFuture, model.SideSell, ask, volume)
				exchange.AddLiquidity(ctx, model.InstrumentETF, model.SideBuy, bid, volume)
				exchange.AddLiquidity(ctx, model.InstrumentETF, model.SideSell, ask, volume)
			}

			exchange.PublishBook(ctx, model.InstrumentFuture)
			exchange.PublishBook(ctx, model.InstrumentETF)
			if rng.Intn(4) == 0 {
				exchange.PublishTradeTicks(ctx, model.InstrumentETF)
			}
		}
	}
}
