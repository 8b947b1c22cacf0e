package journal

import (
	"context"
	"log/slog"
	"net"
	"strconv"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"
)

// greptimeClient abstracts the ingester client for testing.
type greptimeClient interface {
	Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error)
}

// GreptimeWriter ships journal rows to GreptimeDB via the gRPC ingester.
// Tables are auto-created on first write.
type GreptimeWriter struct {
	client  greptimeClient
	txTable string
	hbTable string
	log     *slog.Logger
}

// NewGreptimeWriter connects to a GreptimeDB endpoint ("host:port",
// default port 4001) and database.
func NewGreptimeWriter(endpoint, database string, log *slog.Logger) (*GreptimeWriter, error) {
	if log == nil {
		log = slog.Default()
	}
	host, portStr, err := net.SplitHostPort(endpoint)
	if err != nil {
		host = endpoint
		portStr = "4001"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		port = 4001
	}

	cfg := greptime.NewConfig(host).WithPort(port).WithDatabase(database)
	client, err := greptime.NewClient(cfg)
	if err != nil {
		return nil, err
	}

	return &GreptimeWriter{
		client:  client,
		txTable: "atc_transmissions",
		hbTable: "warmup_heartbeats",
		log:     log,
	}, nil
}

// WriteTransmission inserts a single transmission row.
func (w *GreptimeWriter) WriteTransmission(row TransmissionRow) error {
	tbl, err := table.New(w.txTable)
	if err != nil {
		return err
	}
	tbl.AddTagColumn("session_id", types.STRING)
	tbl.AddTagColumn("speaker", types.STRING)
	tbl.AddFieldColumn("transmission_id", types.STRING)
	tbl.AddFieldColumn("message", types.STRING)
	tbl.AddFieldColumn("latency_ms", types.INT64)
	tbl.AddFieldColumn("altitude_ft", types.INT64)
	tbl.AddFieldColumn("phase", types.STRING)
	tbl.AddFieldColumn("cached", types.BOOLEAN)
	tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND)

	if err := tbl.AddRow(
		row.SessionID, row.Speaker,
		row.TransmissionID, row.Message, row.LatencyMs, int64(row.AltitudeFt), row.Phase, row.Cached,
		row.Timestamp,
	); err != nil {
		return err
	}

	if _, err := w.client.Write(context.Background(), tbl); err != nil {
		w.log.Warn("greptime transmission write failed", "err", err)
		return err
	}
	return nil
}

// WriteHeartbeat inserts a single heartbeat row.
func (w *GreptimeWriter) WriteHeartbeat(row HeartbeatRow) error {
	tbl, err := table.New(w.hbTable)
	if err != nil {
		return err
	}
	tbl.AddTagColumn("session_id", types.STRING)
	tbl.AddFieldColumn("count", types.UINT64)
	tbl.AddFieldColumn("latency_ms", types.INT64)
	tbl.AddFieldColumn("success", types.BOOLEAN)
	tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND)

	if err := tbl.AddRow(row.SessionID, row.Count, row.LatencyMs, row.Success, row.Timestamp); err != nil {
		return err
	}

	if _, err := w.client.Write(context.Background(), tbl); err != nil {
		w.log.Warn("greptime heartbeat write failed", "err", err)
		return err
	}
	return nil
}
