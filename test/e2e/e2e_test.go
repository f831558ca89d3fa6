// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"basket-optimizer/internal/catalog"
	"basket-optimizer/internal/common/config"
	"basket-optimizer/internal/common/database"
	"basket-optimizer/internal/common/logger"
	"basket-optimizer/internal/history"
	"basket-optimizer/internal/models"
	"basket-optimizer/internal/optimizer"
	"basket-optimizer/internal/preferences"

	nb "basket-optimizer/internal/workers/basket/notify-basket"
	ob "basket-optimizer/internal/workers/basket/optimize-basket"
	rb "basket-optimizer/internal/workers/basket/record-basket"
)

const e2eIndex = "basket-e2e-catalog"

type services struct {
	cfg   *config.Config
	pg    *database.PostgresClient
	redis *database.RedisClient
	es    *database.ElasticsearchClient
}

// connect skips unless E2E_BASKET is set; the suite needs the docker-compose
// stack (postgres, redis, elasticsearch) on localhost.
func connect(tb testing.TB) *services {
	tb.Helper()
	if os.Getenv("E2E_BASKET") == "" {
		tb.Skip("set E2E_BASKET=1 to run against live services")
	}

	cfg, err := config.Load()
	require.NoError(tb, err)
	cfg.Database.Postgres.Host = "localhost"
	cfg.Database.Redis.Address = "localhost:6379"
	cfg.Database.Elasticsearch.URL = "http://localhost:9200"
	cfg.Database.Elasticsearch.Addresses = nil

	ctx := context.Background()

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	require.NoError(tb, err, "postgres connection failed")
	require.NoError(tb, pg.Ping(ctx), "postgres ping failed")
	require.NoError(tb, pg.EnsureSchema(ctx))
	tb.Cleanup(func() { pg.Close() })

	rdb := database.NewRedis(cfg.Database.Redis)
	require.NoError(tb, rdb.Ping(ctx), "redis ping failed")
	tb.Cleanup(func() { rdb.Close() })

	es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	require.NoError(tb, err)
	require.NoError(tb, es.Ping(ctx), "elasticsearch ping failed")

	return &services{cfg: cfg, pg: pg, redis: rdb, es: es}
}

func seedUser(t testing.TB, db *sql.DB, userID string) {
	t.Helper()
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS users (
		id        TEXT PRIMARY KEY,
		email     TEXT,
		phone     TEXT,
		nutrition JSONB
	)`)
	require.NoError(t, err)
	_, err = db.Exec(
		`INSERT INTO users (id, email, phone, nutrition) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET nutrition = EXCLUDED.nutrition`,
		userID, "e2e@example.com", "+819012345678", `{"protein": 1, "sodium": -1, "sugar": "down"}`,
	)
	require.NoError(t, err)
}

func seedCatalog(t testing.TB, s *services) {
	t.Helper()
	docs := []string{
		`{"id": 1, "name": "Tofu", "genre": "soy", "price_yen": 120, "protein": 7, "sodium": 1, "sugar": 1}`,
		`{"id": 2, "name": "Natto", "genre": "soy", "price_yen": 90, "protein": 8, "sodium": 2, "sugar": 2}`,
		`{"id": 3, "name": "Ham", "genre": "meat", "priceTax": "310.5", "protein": 12, "sodium": 9, "sugar": 3}`,
		`{"id": 4, "name": "Chicken", "genre": "meat", "price": 420, "protein": 23, "sodium": 1, "sugar": 0}`,
		`{"id": 5, "name": "Juice", "genre": "drink", "price_yen": 150, "protein": 0, "sodium": 0, "sugar": 24}`,
		`{"id": 6, "name": "Milk", "genre": "drink", "price_yen": 180, "protein": 6, "sodium": 1, "sugar": 9}`,
	}
	ctx := context.Background()
	for i, doc := range docs {
		res, err := esapi.IndexRequest{
			Index:      e2eIndex,
			DocumentID: fmt.Sprintf("%d", i+1),
			Body:       strings.NewReader(doc),
			Refresh:    "true",
		}.Do(ctx, s.es.Client)
		require.NoError(t, err)
		require.False(t, res.IsError(), res.String())
		res.Body.Close()
	}
}

func TestBasketFlowE2E(t *testing.T) {
	s := connect(t)
	log := logger.NewTestLogger(t)
	ctx := context.Background()

	userID := "e2e-" + uuid.NewString()
	seedUser(t, s.pg.DB, userID)
	seedCatalog(t, s)

	engine, err := optimizer.NewEngine(optimizer.DefaultOptions(), nil, log)
	require.NoError(t, err)

	store := history.NewRepository(s.pg.DB)
	optimize := ob.NewHandler(&ob.Config{Timeout: 30 * time.Second, DefaultBudget: 50000}, ob.Dependencies{
		Engine:  engine,
		Catalog: catalog.NewElasticsearchRepository(s.es.Client, e2eIndex, 1000, log),
		Preferences: preferences.NewCachedRepository(
			preferences.NewPostgresRepository(s.pg.DB), s.redis.Client, time.Minute, log,
		),
		History: store,
		Logger:  log,
	})
	record := rb.NewHandler(&rb.Config{Timeout: 10 * time.Second}, store, log)
	notify := nb.NewHandler(&nb.Config{Timeout: 10 * time.Second}, s.pg.DB, nil, nil, log)

	budget := int64(700)
	var firstIDs []string

	t.Run("optimize health basket", func(t *testing.T) {
		out, err := optimize.Execute(ctx, &ob.Input{
			UserID:             userID,
			Budget:             &budget,
			IsHealthImportance: true,
			Genres:             []string{"soy", "drink"},
			ResultShape:        ob.ShapeBoth,
		})
		require.NoError(t, err)
		assert.Equal(t, models.ModeHealth, out.Mode)
		assert.LessOrEqual(t, out.AggregateSpend, budget)
		require.NotNil(t, out.AggregateHealth)
		assert.Len(t, out.Items, len(out.SelectedIDs))
		firstIDs = out.SelectedIDs

		rec, err := record.Execute(ctx, &rb.Input{
			UserID:          userID,
			Mode:            out.Mode,
			Budget:          out.Budget,
			AggregateSpend:  out.AggregateSpend,
			AggregateHealth: out.AggregateHealth,
			SelectedIDs:     out.SelectedIDs,
		})
		require.NoError(t, err)
		assert.NotEmpty(t, rec.BasketID)

		sent, err := notify.Execute(ctx, &nb.Input{
			UserID:         userID,
			BasketID:       rec.BasketID,
			Mode:           out.Mode,
			Budget:         out.Budget,
			AggregateSpend: out.AggregateSpend,
			SelectedIDs:    out.SelectedIDs,
			Items:          out.Items,
		})
		require.NoError(t, err)
		assert.Equal(t, nb.StatusDisabled, sent.Status)
	})

	t.Run("repeat request avoids the recorded basket", func(t *testing.T) {
		require.NotEmpty(t, firstIDs)
		out, err := optimize.Execute(ctx, &ob.Input{
			UserID:             userID,
			Budget:             &budget,
			IsHealthImportance: true,
			AvoidRepeats:       true,
			ResultShape:        ob.ShapeSummary,
		})
		require.NoError(t, err)
		assert.NotEmpty(t, out.AvoidedBasketID)

		data, _ := json.Marshal(out)
		t.Logf("second basket: %s", data)
	})

	t.Run("price basket for unknown user needs no preferences", func(t *testing.T) {
		out, err := optimize.Execute(ctx, &ob.Input{
			UserID:      "missing-" + uuid.NewString(),
			Budget:      &budget,
			ResultShape: ob.ShapeSummary,
		})
		require.NoError(t, err)
		assert.Equal(t, models.ModePrice, out.Mode)
		assert.LessOrEqual(t, out.AggregateSpend, budget)
		assert.Positive(t, out.AggregateSpend)
	})
}

func BenchmarkHandler_OptimizeBasket(b *testing.B) {
	s := connect(b)
	seedCatalog(b, s)

	log := logger.NewStructured("warn", "json")
	engine, err := optimizer.NewEngine(optimizer.DefaultOptions(), nil, log)
	require.NoError(b, err)

	handler := ob.NewHandler(&ob.Config{Timeout: 30 * time.Second, DefaultBudget: 50000}, ob.Dependencies{
		Engine:  engine,
		Catalog: catalog.NewElasticsearchRepository(s.es.Client, e2eIndex, 1000, log),
		Logger:  log,
	})
	budget := int64(900)
	input := &ob.Input{
		Budget:             &budget,
		IsHealthImportance: true,
		Preferences:        models.Preference{"protein": models.DirectionUp, "sodium": models.DirectionDown},
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		handler.Execute(context.Background(), input)
	}
}
