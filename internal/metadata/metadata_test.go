package metadata

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"fygallery/internal/source"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("github.com/patrickmn/go-cache.(*janitor).Run"))
}

func TestFormatExposure(t *testing.T) {
	assert.Equal(t, "1/250s", FormatExposure(0.004))
	assert.Equal(t, "1/3s", FormatExposure(0.3))
	assert.Equal(t, "2.0s", FormatExposure(2.0))
	assert.Equal(t, "1.0s", FormatExposure(1))
}

func TestFormat(t *testing.T) {
	lines := Format(Fields{
		Make:         " FUJIFILM ",
		Model:        "X100V",
		LensMake:     "Fujifilm",
		LensModel:    "XF23mmF2 R WR",
		ISO:          400,
		FNumber:      2.8,
		ExposureTime: 0.004,
		FocalLength:  22.6,
	})
	assert.Equal(t, []string{
		"FUJIFILM X100V",
		"XF23mmF2 R WR",
		"f/2.8 • 1/250s • ISO 400 • 23mm",
	}, lines)
}

func TestFormatPartial(t *testing.T) {
	assert.Equal(t, []string{"X100V"}, Format(Fields{Model: "X100V"}))
	assert.Equal(t, []string{"Canon", "Sigma"}, Format(Fields{Make: "Canon", LensMake: "Sigma"}))
	assert.Equal(t, []string{"2.0s • ISO 100"}, Format(Fields{ExposureTime: 2, ISO: 100}))
	assert.Equal(t, []string{"f/8.0"}, Format(Fields{FNumber: 8}))
	assert.Empty(t, Format(Fields{}))
	assert.NotNil(t, Format(Fields{}))
}

func TestDecode(t *testing.T) {
	f, err := Decode(bytes.NewReader(sampleTIFF()))
	require.NoError(t, err)
	assert.Equal(t, "FUJIFILM", f.Make)
	assert.Equal(t, "X100V", f.Model)
	assert.Equal(t, "XF23mmF2 R WR", f.LensModel)
	assert.Equal(t, "", f.LensMake)
	assert.Equal(t, 400, f.ISO)
	assert.InDelta(t, 2.8, f.FNumber, 1e-9)
	assert.InDelta(t, 0.004, f.ExposureTime, 1e-9)
	assert.InDelta(t, 23, f.FocalLength, 1e-9)
	assert.Equal(t, 2024, f.Taken.Year())

	assert.Equal(t, []string{"FUJIFILM X100V", "XF23mmF2 R WR", "f/2.8 • 1/250s • ISO 400 • 23mm"}, Format(f))
}

func TestDecodeWithoutEXIF(t *testing.T) {
	_, err := Decode(strings.NewReader("not an image"))
	assert.Error(t, err)
}

// fakeSource serves fixed bytes and records how each read was requested.
type fakeSource struct {
	mu       sync.Mutex
	data     map[string][]byte
	denyCORS bool
	failAll  bool
	calls    []source.FetchOptions
	opens    atomic.Int32
	gate     chan struct{}
}

func (f *fakeSource) Open(ctx context.Context, name string, opts source.FetchOptions) (io.ReadCloser, error) {
	f.opens.Add(1)
	f.mu.Lock()
	f.calls = append(f.calls, opts)
	f.mu.Unlock()
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.failAll {
		return nil, errors.New("connection refused")
	}
	if opts.CrossOrigin && f.denyCORS {
		return nil, source.ErrCrossOrigin
	}
	b, ok := f.data[name]
	if !ok {
		return nil, source.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (f *fakeSource) options() []source.FetchOptions {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]source.FetchOptions{}, f.calls...)
}

func TestLoaderFirstTier(t *testing.T) {
	src := &fakeSource{data: map[string][]byte{"images/a.jpg": sampleTIFF()}}
	l := NewLoader(src, time.Minute, nil)

	lines := l.Load(context.Background(), "images/a.jpg")
	assert.Len(t, lines, 3)
	assert.Equal(t, []source.FetchOptions{{CrossOrigin: true}}, src.options())
}

func TestLoaderRetriesWithoutCrossOrigin(t *testing.T) {
	src := &fakeSource{data: map[string][]byte{"images/a.jpg": sampleTIFF()}, denyCORS: true}
	log, _ := test.NewNullLogger()
	l := NewLoader(src, time.Minute, log)

	lines := l.Load(context.Background(), "images/a.jpg")
	assert.Equal(t, "FUJIFILM X100V", lines[0])
	assert.Equal(t, []source.FetchOptions{{CrossOrigin: true}, {CacheBust: true}}, src.options())
}

func TestLoaderBothTiersFail(t *testing.T) {
	src := &fakeSource{failAll: true}
	log, hook := test.NewNullLogger()
	l := NewLoader(src, time.Minute, log)

	_, err := l.Fetch(context.Background(), "images/a.jpg")
	assert.ErrorIs(t, err, ErrMetadataLoad)

	lines := l.Load(context.Background(), "images/a.jpg")
	assert.NotNil(t, lines)
	assert.Empty(t, lines)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)

	// failures are not cached
	before := src.opens.Load()
	l.Load(context.Background(), "images/a.jpg")
	assert.Equal(t, before+2, src.opens.Load())
}

func TestLoaderImageWithoutEXIF(t *testing.T) {
	src := &fakeSource{data: map[string][]byte{"images/plain.jpg": []byte("\xff\xd8\xff\xd9")}}
	log, hook := test.NewNullLogger()
	l := NewLoader(src, time.Minute, log)

	assert.Empty(t, l.Load(context.Background(), "images/plain.jpg"))
	assert.Len(t, src.options(), 1, "a readable image is not fetched twice")
	for _, e := range hook.AllEntries() {
		assert.NotEqual(t, logrus.WarnLevel, e.Level)
	}
}

func TestLoaderCaches(t *testing.T) {
	src := &fakeSource{data: map[string][]byte{"images/a.jpg": sampleTIFF()}}
	l := NewLoader(src, time.Minute, nil)

	first := l.Load(context.Background(), "images/a.jpg")
	first[0] = "mutated"
	second := l.Load(context.Background(), "images/a.jpg")
	assert.Equal(t, "FUJIFILM X100V", second[0])
	assert.Equal(t, int32(1), src.opens.Load())
}

func TestLoaderSharesInFlightFetch(t *testing.T) {
	src := &fakeSource{data: map[string][]byte{"images/a.jpg": sampleTIFF()}, gate: make(chan struct{})}
	l := NewLoader(src, time.Minute, nil)

	var wg sync.WaitGroup
	results := make([][]string, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = l.Load(context.Background(), "images/a.jpg")
		}(i)
	}
	time.Sleep(100 * time.Millisecond)
	close(src.gate)
	wg.Wait()

	assert.Equal(t, int32(1), src.opens.Load())
	for _, r := range results {
		assert.Len(t, r, 3)
	}
}

func TestLoaderCancelled(t *testing.T) {
	src := &fakeSource{data: map[string][]byte{"images/a.jpg": sampleTIFF()}, gate: make(chan struct{})}
	log, hook := test.NewNullLogger()
	l := NewLoader(src, time.Minute, log)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Empty(t, l.Load(ctx, "images/a.jpg"))
	assert.Len(t, src.options(), 1)
	for _, e := range hook.AllEntries() {
		assert.NotEqual(t, logrus.WarnLevel, e.Level)
	}
}

func TestLoaderJoinerOutlivesCancelledFetch(t *testing.T) {
	src := &fakeSource{data: map[string][]byte{"images/a.jpg": sampleTIFF()}, gate: make(chan struct{})}
	log, _ := test.NewNullLogger()
	l := NewLoader(src, time.Minute, log)

	ctx1, cancel1 := context.WithCancel(context.Background())
	first := make(chan []string, 1)
	go func() { first <- l.Load(ctx1, "images/a.jpg") }()
	require.Eventually(t, func() bool { return src.opens.Load() == 1 }, time.Second, 5*time.Millisecond)

	second := make(chan []string, 1)
	go func() { second <- l.Load(context.Background(), "images/a.jpg") }()
	time.Sleep(100 * time.Millisecond) // let the second caller join the in-flight fetch

	cancel1()
	assert.Empty(t, <-first)

	// the live caller starts its own fetch instead of taking the cancelled result
	require.Eventually(t, func() bool { return src.opens.Load() == 2 }, time.Second, 5*time.Millisecond)
	close(src.gate)
	lines := <-second
	require.Len(t, lines, 3)
	assert.Equal(t, "FUJIFILM X100V", lines[0])
}
