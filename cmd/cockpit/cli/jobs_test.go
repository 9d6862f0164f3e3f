package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retail-cockpit/cockpit/jobs"
)

type stubClient struct {
	reason string
	err    error
}

func (s *stubClient) EnqueueLiveRefresh(_ context.Context, reason string) (*asynq.TaskInfo, error) {
	s.reason = reason
	if s.err != nil {
		return nil, s.err
	}
	return &asynq.TaskInfo{ID: "t-1", Type: jobs.TaskLiveRefresh, Queue: jobs.QueueDefault}, nil
}

func (s *stubClient) Close() error { return nil }

type stubInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (s stubInspector) GetQueueInfo(string) (*asynq.QueueInfo, error) { return s.info, s.err }

func (stubInspector) Close() error { return nil }

func run(c *JobsCLI, args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := c.Run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestTriggerRefresh(t *testing.T) {
	client := &stubClient{}
	c := &JobsCLI{client: client}

	code, out, _ := run(c, "trigger", "refresh")
	require.Equal(t, 0, code)
	assert.Equal(t, "enqueued live:refresh as t-1 on default\n", out)
	assert.Equal(t, "cli", client.reason)

	code, _, errOut := run(c, "trigger", "anomaly")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "unsupported job anomaly")

	code, out, _ = run(&JobsCLI{client: &stubClient{err: asynq.ErrDuplicateTask}}, "trigger", jobs.TaskLiveRefresh)
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "already pending")
}

func TestStats(t *testing.T) {
	c := &JobsCLI{inspector: stubInspector{info: &asynq.QueueInfo{Pending: 2, Scheduled: 1}}}
	code, out, _ := run(c, "stats")
	require.Equal(t, 0, code)
	assert.JSONEq(t, `{"queue":"default","pending":2,"active":0,"scheduled":1,"retry":0}`, out)

	code, _, errOut := run(&JobsCLI{inspector: stubInspector{err: errors.New("redis down")}}, "stats")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "redis down")
}

func TestUsage(t *testing.T) {
	code, _, errOut := run(&JobsCLI{})
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "usage")

	code, _, _ = run(&JobsCLI{}, "purge")
	assert.Equal(t, 2, code)
}
