package modem_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"go.uber.org/mock/gomock"
	"i4.energy/across/nbiot/modem"
)

func newMockModem(t *testing.T, ctrl *gomock.Controller) (*modem.Modem, *modem.MockTransport) {
	t.Helper()

	mockTransport := modem.NewMockTransport(ctrl)
	mockDialer := modem.NewMockDialer(ctrl)
	mockDialer.EXPECT().Dial(gomock.Any()).Return(mockTransport, nil)

	config, err := modem.NewConfigBuilder().
		WithDialer(mockDialer).
		WithPollInterval(50 * time.Millisecond).
		WithReadyTimeout(300 * time.Millisecond).
		Build()
	if err != nil {
		t.Fatalf("unexpected error from Build(): %v", err)
	}

	m, err := modem.New(context.Background(), config)
	if err != nil {
		t.Fatalf("failed to create modem: %v", err)
	}
	return m, mockTransport
}

func TestModemNew(t *testing.T) {
	t.Run("Creation Success", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		m, mockTransport := newMockModem(t, ctrl)
		if m == nil {
			t.Fatal("New() should return valid modem on success")
		}

		// Clean up
		mockTransport.EXPECT().Close().Return(nil)
		if err := m.Close(); err != nil {
			t.Errorf("unexpected error from Close(): %v", err)
		}
	})

	t.Run("Dialer error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockDialer := modem.NewMockDialer(ctrl)
		dialErr := errors.New("connection failed")
		mockDialer.EXPECT().Dial(gomock.Any()).Return(nil, dialErr)

		config, err := modem.NewConfigBuilder().
			WithDialer(mockDialer).
			Build()
		if err != nil {
			t.Errorf("unexpected error from Build(): %v", err)
		}

		m, err := modem.New(context.Background(), config)
		if !errors.Is(err, dialErr) {
			t.Errorf("expected wrapped dialer error, got: %v", err)
		}
		if m != nil {
			t.Error("New() should return nil modem when dialer fails")
		}
	})

	t.Run("ErrNoDialer when no dialer provided", func(t *testing.T) {
		m, err := modem.New(context.Background(), modem.Config{})
		if !errors.Is(err, modem.ErrNoDialer) {
			t.Errorf("expected ErrNoDialer from New(), got: %v", err)
		}
		if m != nil {
			t.Error("New() should return nil modem when no dialer provided")
		}
	})

	t.Run("ErrNotInitialized on nil transport", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockDialer := modem.NewMockDialer(ctrl)
		mockDialer.EXPECT().Dial(gomock.Any()).Return(nil, nil)

		config, err := modem.NewConfigBuilder().
			WithDialer(mockDialer).
			Build()
		if err != nil {
			t.Errorf("unexpected error from Build(): %v", err)
		}

		_, err = modem.New(context.Background(), config)
		if !errors.Is(err, modem.ErrNotInitialized) {
			t.Errorf("expected ErrNotInitialized from New(), got: %v", err)
		}
	})
}

func TestModemClose(t *testing.T) {
	t.Run("Returns transport error on close failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		m, mockTransport := newMockModem(t, ctrl)

		closeError := errors.New("transport close failed")
		mockTransport.EXPECT().Close().Return(closeError)

		if err := m.Close(); err != closeError {
			t.Errorf("expected transport error, got: %v", err)
		}
	})

	t.Run("ErrAlreadyClosed on double close", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		m, mockTransport := newMockModem(t, ctrl)
		mockTransport.EXPECT().Close().Return(nil)

		if err := m.Close(); err != nil {
			t.Errorf("first close should succeed, got error: %v", err)
		}
		if err := m.Close(); err != modem.ErrAlreadyClosed {
			t.Errorf("expected ErrAlreadyClosed on second close, got: %v", err)
		}
	})

	t.Run("Commands fail after close", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		m, mockTransport := newMockModem(t, ctrl)
		mockTransport.EXPECT().Close().Return(nil)
		m.Close()

		if _, err := m.Exec(context.Background(), "AT", time.Second); !errors.Is(err, modem.ErrAlreadyClosed) {
			t.Errorf("expected ErrAlreadyClosed, got: %v", err)
		}
	})
}

func TestModemLoop(t *testing.T) {
	t.Run("Starts and stops on EOF", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		m, mockTransport := newMockModem(t, ctrl)
		defer m.Close()

		allowEOF := make(chan struct{})
		mockTransport.EXPECT().Read(gomock.Any()).DoAndReturn(func(p []byte) (int, error) {
			<-allowEOF
			return 0, io.EOF
		})
		mockTransport.EXPECT().Close().Return(nil)

		loopDone := make(chan error, 1)
		go func() {
			loopDone <- m.Loop(context.Background())
		}()

		close(allowEOF)
		if err := <-loopDone; !errors.Is(err, io.EOF) {
			t.Errorf("expected Loop to return io.EOF, got: %v", err)
		}
	})

	t.Run("Exits gracefully on context cancellation", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		m, mockTransport := newMockModem(t, ctrl)
		defer m.Close()

		ctx, cancel := context.WithCancel(context.Background())
		readStarted := make(chan struct{})

		mockTransport.EXPECT().Read(gomock.Any()).DoAndReturn(func(p []byte) (int, error) {
			close(readStarted)
			<-ctx.Done()
			return 0, ctx.Err()
		})
		mockTransport.EXPECT().Close().Return(nil)

		loopDone := make(chan error, 1)
		go func() {
			loopDone <- m.Loop(ctx)
		}()

		<-readStarted
		cancel()

		if err := <-loopDone; !errors.Is(err, context.Canceled) {
			t.Errorf("expected Loop to return context.Canceled, got: %v", err)
		}
	})

	t.Run("Handle read errors from Transport", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		m, mockTransport := newMockModem(t, ctrl)
		defer m.Close()

		readError := errors.New("transport read error")
		mockTransport.EXPECT().Read(gomock.Any()).Return(0, readError)
		mockTransport.EXPECT().Close().Return(nil)

		err := m.Loop(context.Background())
		if !errors.Is(err, readError) {
			t.Errorf("expected read error to be wrapped, got: %v", err)
		}
		if err != nil && !strings.Contains(err.Error(), "read error") {
			t.Errorf("expected read error context, got: %v", err)
		}
	})

	t.Run("ErrLoopRunning on consecutive calls", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		m, mockTransport := newMockModem(t, ctrl)
		defer m.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		readStarted := make(chan struct{})
		mockTransport.EXPECT().Read(gomock.Any()).DoAndReturn(func(p []byte) (int, error) {
			close(readStarted)
			<-ctx.Done()
			return 0, ctx.Err()
		})
		mockTransport.EXPECT().Close().Return(nil)

		loopDone := make(chan error, 1)
		go func() {
			loopDone <- m.Loop(ctx)
		}()
		<-readStarted

		if err := m.Loop(ctx); !errors.Is(err, modem.ErrLoopRunning) {
			t.Errorf("expected ErrLoopRunning, got: %v", err)
		}

		cancel()
		<-loopDone
	})
}

func TestModemInit(t *testing.T) {
	t.Run("Reads identity", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		m, mockTransport := newMockModem(t, ctrl)

		seq := NewMockSequence(mockTransport).
			AT().
			IMSI("460001234567890").
			IMEI("866971030000000").
			Reads()
		gomock.InOrder(seq.Build()...)
		mockTransport.EXPECT().Close().DoAndReturn(func() error {
			seq.Finish()
			return nil
		})
		defer m.Close()

		go m.Loop(context.Background())

		if err := m.Init(context.Background()); err != nil {
			t.Fatalf("unexpected error from Init(): %v", err)
		}

		id := m.Identity()
		if id.IMSI != "460001234567890" {
			t.Errorf("unexpected IMSI %q", id.IMSI)
		}
		if id.IMEI != "866971030000000" {
			t.Errorf("unexpected IMEI %q", id.IMEI)
		}
	})

	t.Run("ErrNotResponding when the modem stays silent", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		m, mockTransport := newMockModem(t, ctrl)

		seq := NewMockSequence(mockTransport).Reads()
		mockTransport.EXPECT().Write([]byte("AT\r")).Return(3, nil).MinTimes(1)
		mockTransport.EXPECT().Close().DoAndReturn(func() error {
			seq.Finish()
			return nil
		})
		defer m.Close()

		go m.Loop(context.Background())

		if err := m.Init(context.Background()); !errors.Is(err, modem.ErrNotResponding) {
			t.Errorf("expected ErrNotResponding, got: %v", err)
		}
	})
}

func TestModemWaitReady(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m, mockTransport := newMockModem(t, ctrl)

	seq := NewMockSequence(mockTransport).
		AT().
		Registration("2").
		Registration("1").
		Reads()
	gomock.InOrder(seq.Build()...)
	mockTransport.EXPECT().Close().DoAndReturn(func() error {
		seq.Finish()
		return nil
	})
	defer m.Close()

	go m.Loop(context.Background())

	if err := m.WaitReady(context.Background()); err != nil {
		t.Fatalf("unexpected error from WaitReady(): %v", err)
	}
}
