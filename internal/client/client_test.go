package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/and161185/lab-data-logger/internal/errs"
	"github.com/and161185/lab-data-logger/internal/testutils"
	"github.com/and161185/lab-data-logger/model"
	"github.com/stretchr/testify/require"
)

func TestDataServiceClient(t *testing.T) {
	stub := testutils.NewDataService(t, "stub", model.Fields{"a": int64(1), "b": 2.5, "ok": true, "s": "x"})
	c := NewDataServiceClient(stub.Netloc, nil)
	ctx := context.Background()

	name, err := c.ServiceName(ctx)
	require.NoError(t, err)
	require.Equal(t, "stub", name)

	fields, err := c.GetData(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, model.Fields{"a": int64(1), "b": 2.5, "ok": true, "s": "x"}, fields)

	fields, err = c.GetData(ctx, []string{"a"})
	require.NoError(t, err)
	require.Equal(t, model.Fields{"a": int64(1)}, fields)
}

func TestDataServiceClient_RemoteError(t *testing.T) {
	stub := testutils.NewDataService(t, "stub", model.Fields{"a": int64(1)})
	stub.Acquirer.SetErr(errors.New("adc timeout"))

	_, err := NewDataServiceClient(stub.Netloc, nil).GetData(context.Background(), nil)
	require.Error(t, err)
	require.False(t, errs.IsConnectionFault(err))
	require.Contains(t, err.Error(), "adc timeout")
}

func TestDataServiceClient_Refused(t *testing.T) {
	netloc := model.Netloc{Host: "127.0.0.1", Port: testutils.FreePort(t)}
	_, err := NewDataServiceClient(netloc, nil).ServiceName(context.Background())
	require.ErrorIs(t, err, errs.ErrConnectionRefused)
}

func TestDataServiceClient_ServiceGoesAway(t *testing.T) {
	stub := testutils.NewDataService(t, "stub", model.Fields{"a": int64(1)})
	c := Dialer(time.Second)(stub.Netloc)

	_, err := c.GetData(context.Background(), nil)
	require.NoError(t, err)

	stub.Close()
	_, err = c.GetData(context.Background(), nil)
	require.True(t, errs.IsConnectionFault(err), "got %v", err)
}
