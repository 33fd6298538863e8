package sim

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"

	"regard/internal/tracking"
)

const greptimeWriteTimeout = 10 * time.Second

// greptimeClient is the subset of the ingester client used by the writer.
type greptimeClient interface {
	Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error)
}

// GreptimeDBWriter writes rows to GreptimeDB via the ingester client.
type GreptimeDBWriter struct {
	client      greptimeClient
	posTable    string
	interpTable string
	logger      *slog.Logger
}

// NewGreptimeDBWriter connects to endpoint ("host" or "host:port", gRPC port
// defaults to 4001). Tables are created on first write.
func NewGreptimeDBWriter(endpoint, database string, logger *slog.Logger) (*GreptimeDBWriter, error) {
	host, port := endpoint, 4001
	if h, p, err := net.SplitHostPort(endpoint); err == nil {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid greptime port %q: %w", p, err)
		}
		host, port = h, n
	}
	cfg := greptime.NewConfig(host).WithPort(port).WithDatabase(database)
	client, err := greptime.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("greptime client: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GreptimeDBWriter{
		client:      client,
		posTable:    tracking.PositionTableName,
		interpTable: tracking.InterpretationTableName,
		logger:      logger,
	}, nil
}

// WritePosition inserts a single position row.
func (w *GreptimeDBWriter) WritePosition(row tracking.PositionRow) error {
	return w.WritePositions([]tracking.PositionRow{row})
}

// WritePositions inserts multiple position rows.
func (w *GreptimeDBWriter) WritePositions(rows []tracking.PositionRow) error {
	if len(rows) == 0 {
		return nil
	}
	tbl, err := table.New(w.posTable)
	if err != nil {
		return err
	}
	if err := tbl.AddTagColumn("entity_id", types.STRING); err != nil {
		return err
	}
	if err := tbl.AddTagColumn("entity_type", types.STRING); err != nil {
		return err
	}
	if err := tbl.AddFieldColumn("name", types.STRING); err != nil {
		return err
	}
	if err := tbl.AddFieldColumn("lat", types.FLOAT64); err != nil {
		return err
	}
	if err := tbl.AddFieldColumn("lng", types.FLOAT64); err != nil {
		return err
	}
	if err := tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND); err != nil {
		return err
	}
	for _, r := range rows {
		if err := tbl.AddRow(r.EntityID, string(r.EntityType), r.Name, r.Lat, r.Lng, r.Timestamp); err != nil {
			return err
		}
	}
	return w.write(tbl, len(rows))
}

// WriteInterpretation inserts a single interpretation row.
func (w *GreptimeDBWriter) WriteInterpretation(row tracking.InterpretationRow) error {
	return w.WriteInterpretations([]tracking.InterpretationRow{row})
}

// WriteInterpretations inserts multiple interpretation rows.
func (w *GreptimeDBWriter) WriteInterpretations(rows []tracking.InterpretationRow) error {
	if len(rows) == 0 {
		return nil
	}
	tbl, err := table.New(w.interpTable)
	if err != nil {
		return err
	}
	if err := tbl.AddTagColumn("entity_id", types.STRING); err != nil {
		return err
	}
	if err := tbl.AddTagColumn("outcome", types.STRING); err != nil {
		return err
	}
	if err := tbl.AddFieldColumn("interpretation", types.STRING); err != nil {
		return err
	}
	if err := tbl.AddFieldColumn("confidence", types.FLOAT64); err != nil {
		return err
	}
	if err := tbl.AddFieldColumn("alert", types.BOOLEAN); err != nil {
		return err
	}
	if err := tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND); err != nil {
		return err
	}
	for _, r := range rows {
		if err := tbl.AddRow(r.EntityID, r.Outcome, r.Interpretation, r.Confidence, r.Alert, r.Timestamp); err != nil {
			return err
		}
	}
	return w.write(tbl, len(rows))
}

func (w *GreptimeDBWriter) write(tbl *table.Table, n int) error {
	ctx, cancel := context.WithTimeout(context.Background(), greptimeWriteTimeout)
	defer cancel()
	if _, err := w.client.Write(ctx, tbl); err != nil {
		w.logger.Error("greptime write failed", "err", err)
		return err
	}
	w.logger.Debug("greptime write", "rows", n)
	return nil
}
