package sse

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ms-backoffice/internal/logger"
	"ms-backoffice/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func event(formNo, receipt string) models.PaymentEvent {
	return models.PaymentEvent{Type: "payment.recorded", FormNo: formNo, ReceiptNo: receipt, Amount: decimal.NewFromInt(100)}
}

func TestBroadcastRoutesByFormNo(t *testing.T) {
	feed := NewPaymentFeed()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	all := feed.Subscribe(ctx, "")
	one := feed.Subscribe(ctx, "SSC20250001")
	assert.Equal(t, 2, feed.Clients())

	feed.Broadcast(event("SSC20250001", "RCP202500001"))
	feed.Broadcast(event("SSC20250002", "RCP202500002"))

	assert.Equal(t, "RCP202500001", (<-all).ReceiptNo)
	assert.Equal(t, "RCP202500002", (<-all).ReceiptNo)
	assert.Equal(t, "RCP202500001", (<-one).ReceiptNo)
	select {
	case e := <-one:
		t.Fatalf("unexpected event %s", e.ReceiptNo)
	default:
	}
}

func TestSubscriptionClosesWithContext(t *testing.T) {
	feed := NewPaymentFeed()
	ctx, cancel := context.WithCancel(context.Background())
	ch := feed.Subscribe(ctx, "")
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel was not closed")
	}
	assert.Eventually(t, func() bool { return feed.Clients() == 0 }, time.Second, 10*time.Millisecond)
}

func TestBroadcastDoesNotBlockOnSlowClient(t *testing.T) {
	feed := NewPaymentFeed()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	feed.Subscribe(ctx, "")

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			feed.Broadcast(event("SSC20250001", "RCP"))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked")
	}
}

func TestStreamPaymentsHandler(t *testing.T) {
	feed := NewPaymentFeed()
	h := NewHandler(feed, logger.NewDiscard())
	srv := httptest.NewServer(http.HandlerFunc(h.StreamPayments))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "?form_no=SSC20250001")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: connected\n", line)

	require.Eventually(t, func() bool { return feed.Clients() == 1 }, time.Second, 10*time.Millisecond)
	feed.Broadcast(event("SSC20250001", "RCP202500009"))

	for {
		line, err = reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "data: {\"type\"") {
			break
		}
	}
	assert.Contains(t, line, "RCP202500009")
}
