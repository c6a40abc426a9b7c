package database

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// DB is an explicit handle to the Mongo database; everything downstream
// takes it (or a collection from it) as a constructor argument.
type DB struct {
	client *mongo.Client
	db     *mongo.Database
	log    *zap.Logger
}

// Connect resolves config from the environment and establishes the
// connection, then bootstraps indexes.
func Connect(ctx context.Context, log *zap.Logger) (*DB, error) {
	cfg, reason := resolveConfig()
	log.Info("mongo: connecting",
		zap.String("mode", cfg.Mode),
		zap.String("uri", redactURI(cfg.URI)),
		zap.String("db", cfg.DBName),
		zap.String("reason", reason))

	start := time.Now()
	dctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	c, err := mongo.Connect(dctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err = c.Ping(dctx, nil); err != nil {
		_ = c.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	h := &DB{client: c, db: c.Database(cfg.DBName), log: log}
	if err := h.createIndexes(); err != nil {
		log.Warn("mongo: index creation warnings", zap.Error(err))
	}
	log.Info("mongo: connected", zap.Duration("took", time.Since(start).Round(time.Millisecond)))
	return h, nil
}

func (h *DB) Disconnect(ctx context.Context) error {
	if h.client == nil {
		return nil
	}
	return h.client.Disconnect(ctx)
}

func (h *DB) Col(name string) *mongo.Collection {
	return h.db.Collection(name)
}

// --- internal ---

type config struct {
	Mode   string
	URI    string
	DBName string
}

// resolveConfig returns the chosen config and a human-readable reason.
func resolveConfig() (config, string) {
	mode := strings.ToLower(getenv("MONGO_MODE", "auto"))
	dbname := getenv("MONGO_DB", "citefix")

	explicit := strings.TrimSpace(os.Getenv("MONGO_URI"))
	local := getenv("MONGO_URI_LOCAL", "mongodb://localhost:27017")
	remote := strings.TrimSpace(os.Getenv("MONGO_URI_REMOTE"))

	switch mode {
	case "local":
		return config{Mode: "local", URI: chooseFirstNonEmpty(explicit, local), DBName: dbname},
			"MONGO_MODE=local"
	case "remote":
		if remote != "" {
			return config{Mode: "remote", URI: remote, DBName: dbname}, "MONGO_MODE=remote, using MONGO_URI_REMOTE"
		}
		return config{Mode: "local", URI: chooseFirstNonEmpty(explicit, local), DBName: dbname},
			"remote missing, fallback to explicit/local"
	default: // auto, precedence: remote > explicit > local
		if remote != "" {
			return config{Mode: "remote", URI: remote, DBName: dbname}, "auto: MONGO_URI_REMOTE present"
		}
		if explicit != "" {
			return config{Mode: "auto", URI: explicit, DBName: dbname}, "auto: MONGO_URI present"
		}
		return config{Mode: "local", URI: local, DBName: dbname}, "auto: fallback to local"
	}
}

func (h *DB) createIndexes() error {
	ctxIdx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var errs []string
	add := func(col string, keys bson.D) {
		if _, err := h.Col(col).Indexes().CreateOne(ctxIdx, mongo.IndexModel{Keys: keys}); err != nil {
			errs = append(errs, fmt.Sprintf("%s %v: %v", col, keys, err))
		}
	}

	add("reports", bson.D{{Key: "created_at", Value: -1}})
	add("reports", bson.D{{Key: "category", Value: 1}})
	add("reports", bson.D{{Key: "status", Value: 1}})
	add("reports", bson.D{{Key: "location.zone", Value: 1}})
	add("interventions", bson.D{{Key: "report_id", Value: 1}})
	add("interventions", bson.D{{Key: "report_id", Value: 1}, {Key: "status", Value: 1}})
	add("interventions", bson.D{{Key: "technician_ids", Value: 1}})

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// --- utils ---

func redactURI(raw string) string {
	if raw == "" || !strings.Contains(raw, "://") {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	u.User = url.UserPassword("****", "****")
	return u.String()
}

func getenv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func chooseFirstNonEmpty(v1, v2 string) string {
	if strings.TrimSpace(v1) != "" {
		return v1
	}
	return v2
}
