package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

func observed(level gormLogger.LogLevel) (*GormLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return NewGormLogger(zap.New(core), level), logs
}

func query() (string, int64) { return "SELECT 1", 1 }

func TestGormLoggerTrace(t *testing.T) {
	ctx := context.Background()

	l, logs := observed(gormLogger.Warn)
	l.Trace(ctx, time.Now(), query, nil)
	l.Trace(ctx, time.Now(), query, gorm.ErrRecordNotFound)
	if logs.Len() != 0 {
		t.Fatalf("expected fast queries and missing records to be quiet, got %d entries", logs.Len())
	}

	l.Trace(ctx, time.Now(), query, errors.New("boom"))
	l.Trace(ctx, time.Now().Add(-time.Second), query, nil)
	entries := logs.TakeAll()
	if len(entries) != 2 || entries[0].Message != "query failed" || entries[1].Message != "slow query" {
		t.Fatalf("unexpected entries %+v", entries)
	}
	if entries[0].ContextMap()["sql"] != "SELECT 1" || entries[0].LoggerName != "gorm" {
		t.Fatalf("unexpected fields %+v", entries[0].ContextMap())
	}

	verbose, logs := observed(gormLogger.Info)
	verbose.Trace(ctx, time.Now(), query, nil)
	if logs.FilterMessage("query").Len() != 1 {
		t.Fatal("expected every query at info level")
	}

	silent := verbose.LogMode(gormLogger.Silent)
	silent.Trace(ctx, time.Now(), query, errors.New("boom"))
	silent.Error(ctx, "failed %s", "x")
	if logs.Len() != 1 {
		t.Fatal("silent mode must not log")
	}
}

func TestGormLoggerMessages(t *testing.T) {
	l, logs := observed(gormLogger.Warn)
	l.Info(context.Background(), "opened %s", "db")
	l.Warn(context.Background(), "slow %d", 3)

	if logs.Len() != 1 || logs.All()[0].Message != "slow 3" {
		t.Fatalf("expected only the warning, got %+v", logs.All())
	}
}
