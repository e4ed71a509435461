package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"RegimeShift/internal/domain/models"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

type fixedStatus struct{ st models.RunStatus }

func (f fixedStatus) Status() models.RunStatus { return f.st }

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, b, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var f Frame
	if err := json.Unmarshal(b, &f); err != nil {
		t.Fatal(err)
	}
	return f
}

func TestHubPushesStatusOnPublish(t *testing.T) {
	hub := NewHub(nil, fixedStatus{st: models.RunStatus{State: models.StateReady, Runs: 1}}, time.Minute)
	e := echo.New()
	hub.RegisterRoutes(e)
	srv := httptest.NewServer(e)
	defer srv.Close()
	defer hub.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/status"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if f := readFrame(t, conn); f.Status.State != models.StateReady || f.ModelResults != nil {
		t.Fatalf("unexpected greeting %+v", f)
	}

	deadline := time.Now().Add(2 * time.Second)
	for hub.Clients() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	snap := &models.Snapshot{
		State: models.StateReady,
		Result: &models.AnalysisResult{Estimate: models.PointEstimate{
			ChangePointDate: time.Date(2020, 1, 4, 0, 0, 0, 0, time.UTC),
			Mu1:             0.1,
		}},
	}
	hub.Publish(context.Background(), snap)

	f := readFrame(t, conn)
	if f.ModelResults == nil || f.ModelResults.ChangePointDate != "2020-01-04" || f.ModelResults.Mu1Post != 0.1 {
		t.Fatalf("unexpected frame %+v", f)
	}
}
