package logging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
)

// PutLogEvents limits: events per call, payload bytes per call, and the
// fixed per-event overhead counted against the payload.
const (
	defaultFlushInterval = 2 * time.Second

	maxBatchEvents   = 10000
	maxBatchBytes    = 1048576
	maxEventBytes    = 262144
	eventOverhead    = 26
	truncationSuffix = "...[truncated]"
)

// LogsAPI is the subset of the CloudWatch Logs client used for shipping.
type LogsAPI interface {
	CreateLogGroup(ctx context.Context, in *cloudwatchlogs.CreateLogGroupInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogGroupOutput, error)
	CreateLogStream(ctx context.Context, in *cloudwatchlogs.CreateLogStreamInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogStreamOutput, error)
	PutLogEvents(ctx context.Context, in *cloudwatchlogs.PutLogEventsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.PutLogEventsOutput, error)
}

// NewCloudWatchClient loads the default AWS credential chain for region.
func NewCloudWatchClient(ctx context.Context, region string) (*cloudwatchlogs.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return cloudwatchlogs.NewFromConfig(cfg), nil
}

// StreamName returns "<prefix>-<unix millis>".
func StreamName(prefix string, now time.Time) string {
	return fmt.Sprintf("%s-%d", prefix, now.UnixMilli())
}

// CloudWatchWriter buffers log lines and ships them to one log stream in
// batches. Each Write must carry exactly one record.
type CloudWatchWriter struct {
	client        LogsAPI
	group, stream string
	flushInterval time.Duration
	errOut        io.Writer

	mu           sync.Mutex
	pending      []types.InputLogEvent
	pendingBytes int

	kick      chan struct{}
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewCloudWatchWriter makes sure the group and stream exist and starts the
// background flusher.
func NewCloudWatchWriter(ctx context.Context, client LogsAPI, group, stream string) (*CloudWatchWriter, error) {
	_, err := client.CreateLogGroup(ctx, &cloudwatchlogs.CreateLogGroupInput{LogGroupName: aws.String(group)})
	if err != nil && !alreadyExists(err) {
		return nil, fmt.Errorf("create log group %s: %w", group, err)
	}
	_, err = client.CreateLogStream(ctx, &cloudwatchlogs.CreateLogStreamInput{
		LogGroupName:  aws.String(group),
		LogStreamName: aws.String(stream),
	})
	if err != nil && !alreadyExists(err) {
		return nil, fmt.Errorf("create log stream %s: %w", stream, err)
	}

	w := &CloudWatchWriter{
		client:        client,
		group:         group,
		stream:        stream,
		flushInterval: defaultFlushInterval,
		errOut:        os.Stderr,
		kick:          make(chan struct{}, 1),
		done:          make(chan struct{}),
	}
	w.wg.Add(1)
	go w.loop()
	return w, nil
}

func alreadyExists(err error) bool {
	var exists *types.ResourceAlreadyExistsException
	return errors.As(err, &exists)
}

func (w *CloudWatchWriter) Write(p []byte) (int, error) {
	msg := string(bytes.TrimRight(p, "\n"))
	if msg == "" {
		return len(p), nil
	}
	if len(msg)+eventOverhead > maxEventBytes {
		msg = msg[:maxEventBytes-eventOverhead-len(truncationSuffix)] + truncationSuffix
	}

	w.mu.Lock()
	w.pending = append(w.pending, types.InputLogEvent{
		Message:   aws.String(msg),
		Timestamp: aws.Int64(time.Now().UnixMilli()),
	})
	w.pendingBytes += eventSize(w.pending[len(w.pending)-1])
	full := len(w.pending) >= maxBatchEvents || w.pendingBytes >= maxBatchBytes
	w.mu.Unlock()

	if full {
		select {
		case w.kick <- struct{}{}:
		default:
		}
	}
	return len(p), nil
}

func eventSize(e types.InputLogEvent) int {
	return len(aws.ToString(e.Message)) + eventOverhead
}

// batchLen returns how many leading events fit in one PutLogEvents call.
func batchLen(events []types.InputLogEvent) int {
	size := 0
	for i, e := range events {
		if i == maxBatchEvents || size+eventSize(e) > maxBatchBytes {
			return i
		}
		size += eventSize(e)
	}
	return len(events)
}

// Flush ships everything buffered so far. A rejected batch is dropped;
// events behind it go back to the buffer for the next flush.
func (w *CloudWatchWriter) Flush(ctx context.Context) error {
	w.mu.Lock()
	batch := w.pending
	w.pending = nil
	w.pendingBytes = 0
	w.mu.Unlock()

	for len(batch) > 0 {
		n := batchLen(batch)
		_, err := w.client.PutLogEvents(ctx, &cloudwatchlogs.PutLogEventsInput{
			LogGroupName:  aws.String(w.group),
			LogStreamName: aws.String(w.stream),
			LogEvents:     batch[:n],
		})
		batch = batch[n:]
		if err != nil {
			w.requeue(batch)
			return fmt.Errorf("put log events: %w", err)
		}
	}
	return nil
}

func (w *CloudWatchWriter) requeue(events []types.InputLogEvent) {
	if len(events) == 0 {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, e := range events {
		w.pendingBytes += eventSize(e)
	}
	w.pending = append(append([]types.InputLogEvent(nil), events...), w.pending...)
}

func (w *CloudWatchWriter) loop() {
	defer w.wg.Done()
	ticker := time.NewTicker(w.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
		case <-w.kick:
		}
		w.flushReporting()
	}
}

func (w *CloudWatchWriter) flushReporting() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := w.Flush(ctx); err != nil {
		// the logger itself may be the sink, so report out of band
		fmt.Fprintf(w.errOut, "cloudwatch: %v\n", err)
	}
}

// Close stops the flusher and ships what is left.
func (w *CloudWatchWriter) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		w.wg.Wait()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err = w.Flush(ctx)
	})
	return err
}
