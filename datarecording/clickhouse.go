package datarecording

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/sirupsen/logrus"
	"github.com/tebeka/atexit"
)

// ClickHouseScheme prefixes recording targets that name a ClickHouse server.
const ClickHouseScheme = "clickhouse://"

// Open creates a recorder for target. Targets starting with
// "clickhouse://" are ClickHouse DSNs; anything else is a SQLite database
// name as accepted by New.
func Open(target string, logger *logrus.Logger) DataRecorder {
	if strings.HasPrefix(target, ClickHouseScheme) {
		return NewClickHouse(target, logger)
	}

	return New(target, logger)
}

type clickhouseWriter struct {
	conn   driver.Conn
	logger *logrus.Logger

	mu         sync.Mutex
	tables     map[string]*table
	tableNames []string
	batchSize  int
	entryCount int
	closed     bool
}

// NewClickHouse connects to the ClickHouse server named by dsn, such as
// clickhouse://localhost:9000/crc?username=default.
func NewClickHouse(dsn string, logger *logrus.Logger) DataRecorder {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	opts, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		panic(fmt.Errorf("invalid ClickHouse DSN: %w", err))
	}

	conn, err := clickhouse.Open(opts)
	if err != nil {
		panic(fmt.Errorf("failed to connect to ClickHouse: %w", err))
	}

	if err := conn.Ping(context.Background()); err != nil {
		panic(fmt.Errorf("failed to ping ClickHouse: %w", err))
	}

	logger.WithField("addr", opts.Addr).Info("ClickHouse connected for recording")

	w := &clickhouseWriter{
		conn:      conn,
		logger:    logger,
		tables:    make(map[string]*table),
		batchSize: 100000,
	}

	atexit.Register(func() { w.Flush() })

	return w
}

func clickhouseColumnType(kind reflect.Kind) string {
	switch kind {
	case reflect.Bool:
		return "Bool"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "Int64"
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Uint64:
		return "UInt64"
	case reflect.Float32, reflect.Float64:
		return "Float64"
	default:
		return "String"
	}
}

func clickhouseCreateTableSQL(tableName string, st reflect.Type) string {
	columns := make([]string, st.NumField())
	for i := range columns {
		field := st.Field(i)
		columns[i] = "`" + field.Name + "` " +
			clickhouseColumnType(field.Type.Kind())
	}

	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (\n\t%s\n) ENGINE = MergeTree()\nORDER BY tuple()",
		tableName, strings.Join(columns, ",\n\t"))
}

// clickhouseRow widens every field to the Go type of its column.
func clickhouseRow(entry any) []any {
	value := reflect.ValueOf(entry)
	row := make([]any, value.NumField())

	for i := range row {
		field := value.Field(i)

		switch field.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32,
			reflect.Int64:
			row[i] = field.Int()
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
			reflect.Uint64:
			row[i] = field.Uint()
		case reflect.Float32, reflect.Float64:
			row[i] = field.Float()
		default:
			row[i] = field.Interface()
		}
	}

	return row
}

func (w *clickhouseWriter) CreateTable(tableName string, sampleEntry any) {
	st, err := structTypeOf(sampleEntry)
	if err != nil {
		panic(fmt.Errorf("table %s: %w", tableName, err))
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, exists := w.tables[tableName]; exists {
		panic(fmt.Sprintf("table %s already exists", tableName))
	}

	err = w.conn.Exec(context.Background(),
		clickhouseCreateTableSQL(tableName, st))
	if err != nil {
		panic(fmt.Errorf("failed to create table %s: %w", tableName, err))
	}

	w.tables[tableName] = &table{structType: st}
	w.tableNames = append(w.tableNames, tableName)
}

func (w *clickhouseWriter) InsertData(tableName string, entry any) {
	w.mu.Lock()

	table, exists := w.tables[tableName]
	if !exists {
		w.mu.Unlock()
		panic(fmt.Sprintf("table %s does not exist", tableName))
	}

	if reflect.TypeOf(entry) != table.structType {
		w.mu.Unlock()
		panic(fmt.Sprintf("entry of type %T does not match table %s",
			entry, tableName))
	}

	table.entries = append(table.entries, entry)
	w.entryCount++

	full := w.entryCount >= w.batchSize
	w.mu.Unlock()

	if full {
		w.Flush()
	}
}

func (w *clickhouseWriter) ListTables() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	tables := make([]string, len(w.tableNames))
	copy(tables, w.tableNames)

	return tables
}

func (w *clickhouseWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.entryCount == 0 || w.closed {
		return
	}

	ctx := context.Background()

	for _, tableName := range w.tableNames {
		table := w.tables[tableName]
		if len(table.entries) == 0 {
			continue
		}

		w.sendBatch(ctx, tableName, table.entries)
		table.entries = nil
	}

	w.entryCount = 0
}

func (w *clickhouseWriter) sendBatch(
	ctx context.Context,
	tableName string,
	entries []any,
) {
	batch, err := w.conn.PrepareBatch(ctx, "INSERT INTO "+tableName)
	if err != nil {
		panic(fmt.Errorf("failed to prepare batch for %s: %w", tableName, err))
	}

	for _, entry := range entries {
		if err := batch.Append(clickhouseRow(entry)...); err != nil {
			panic(fmt.Errorf("failed to append to batch: %w", err))
		}
	}

	if err := batch.Send(); err != nil {
		panic(fmt.Errorf("failed to send batch: %w", err))
	}
}

func (w *clickhouseWriter) Close() error {
	w.Flush()

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}

	w.closed = true

	return w.conn.Close()
}
