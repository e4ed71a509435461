package clickhouse

import (
	"testing"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
)

func TestOptions(t *testing.T) {
	cfg := ClientConfig{Host: "ch", Port: 8123, User: "u", Password: "p", Database: "rs"}
	for _, opt := range []ClientOption{
		WithHTTP(true),
		WithAsyncInsert(true, true),
		WithMaxExecutionTime(90 * time.Second),
		WithTimeouts(time.Second, 2*time.Second),
	} {
		opt(&cfg)
	}
	o := options(cfg)
	if o.Protocol != clickhouse.HTTP || o.Addr[0] != "ch:8123" {
		t.Fatalf("unexpected endpoint %v %v", o.Protocol, o.Addr)
	}
	if o.Auth.Database != "default" || o.Auth.Username != "u" {
		t.Fatalf("unexpected auth %+v", o.Auth)
	}
	if o.Settings["max_execution_time"] != 90 || o.Settings["wait_for_async_insert"] != 1 {
		t.Fatalf("unexpected settings %v", o.Settings)
	}
	if o.ReadTimeout != 2*time.Second {
		t.Fatalf("read timeout %v", o.ReadTimeout)
	}
}

func TestTableIsQualified(t *testing.T) {
	c := &Client{database: "regimeshift"}
	if got := c.Table("analysis_runs"); got != "`regimeshift`.`analysis_runs`" {
		t.Fatalf("Table() = %s", got)
	}
}

func TestNewClientRequiresHost(t *testing.T) {
	if _, err := NewClient(WithHost("")); err == nil {
		t.Fatal("expected error")
	}
}
