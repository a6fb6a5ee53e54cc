package adapter

import (
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-chatline/internal/config"
	"go-chatline/internal/infrastructure/queue/port"
)

func optionValues(opts []asynq.Option) map[asynq.OptionType]interface{} {
	out := make(map[asynq.OptionType]interface{}, len(opts))
	for _, o := range opts {
		out[o.Type()] = o.Value()
	}
	return out
}

func TestToAsynqOptions(t *testing.T) {
	assert.Nil(t, toAsynqOptions(nil))

	got := optionValues(toAsynqOptions([]port.EnqueueOption{{
		Queue:    "push",
		NoRetry:  true,
		MaxRetry: 5,
		Timeout:  15 * time.Second,
	}}))
	assert.Equal(t, "push", got[asynq.QueueOpt])
	assert.Equal(t, 0, got[asynq.MaxRetryOpt])
	assert.Equal(t, 15*time.Second, got[asynq.TimeoutOpt])

	got = optionValues(toAsynqOptions([]port.EnqueueOption{{MaxRetry: 3, ProcessIn: time.Minute}}))
	assert.Equal(t, 3, got[asynq.MaxRetryOpt])
	assert.Equal(t, time.Minute, got[asynq.ProcessInOpt])
	_, hasQueue := got[asynq.QueueOpt]
	assert.False(t, hasQueue)
}

func TestConstructorsRequireRedisURL(t *testing.T) {
	_, err := NewAsynqClient("")
	require.Error(t, err)

	_, err = NewAsynqServer("", config.QueueConfig{}, zerolog.Nop())
	require.Error(t, err)
}
