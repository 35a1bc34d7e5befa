package ioc

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/ecodeclub/ekit/retry"
	"github.com/ego-component/egorm"
	"github.com/fahaniecares/notification-delivery/internal/repository/dao"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testDSN = "root:root@tcp(localhost:13316)/notification?charset=utf8mb4&collation=utf8mb4_general_ci&parseTime=True&loc=Local&timeout=1s&readTimeout=3s&writeTimeout=3s&multiStatements=true"

var (
	db         *egorm.Component
	dbInitOnce sync.Once
)

// WaitForDBSetup blocks until the test database answers pings, so suites can
// start before docker compose finishes bringing MySQL up.
func WaitForDBSetup(dsn string) {
	sqlDB, err := sql.Open("mysql", dsn)
	if err != nil {
		panic(err)
	}
	const maxInterval = 10 * time.Second
	const maxRetries = 10
	strategy, err := retry.NewExponentialBackoffRetryStrategy(time.Second, maxInterval, maxRetries)
	if err != nil {
		panic(err)
	}

	const timeout = 5 * time.Second
	for {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		err = sqlDB.PingContext(ctx)
		cancel()
		if err == nil {
			break
		}
		next, ok := strategy.Next()
		if !ok {
			panic("database did not come up in time")
		}
		time.Sleep(next)
	}
}

func InitDBAndTables() *egorm.Component {
	dbInitOnce.Do(func() {
		WaitForDBSetup(testDSN)
		config := &gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		}
		gormDB, err := gorm.Open(mysql.Open(testDSN), config)
		if err != nil {
			panic(fmt.Errorf("connecting test database: %w", err))
		}
		err = gormDB.AutoMigrate(
			&dao.Notification{},
			&dao.DeliveryLog{},
			&dao.RetryQueueItem{},
			&dao.Preference{},
		)
		if err != nil {
			panic(fmt.Errorf("migrating test tables: %w", err))
		}
		db = gormDB
	})
	return db
}
