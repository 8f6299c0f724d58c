// Package logconsole fans node log output out to per-execution channels so
// callers can stream console lines while a workflow runs.
package logconsole

import (
	"fmt"
	"sync"

	"github.com/goccy/go-json"

	"github.com/s6s-labs/s6s-engine/pkg/idwrap"
)

// LogLevel represents the severity level of a log message
type LogLevel int32

const (
	LogLevelUnspecified LogLevel = 0
	LogLevelInfo        LogLevel = 1
	LogLevelWarning     LogLevel = 2
	LogLevelError       LogLevel = 3
)

type LogMessage struct {
	LogID idwrap.IDWrap
	Value string
	Level LogLevel
	// JSON contains the structured payload encoded as JSON.
	JSON string
}

type LogChanMap struct {
	mt      *sync.Mutex
	chanMap map[idwrap.IDWrap]chan LogMessage
}

func NewLogChanMap() LogChanMap {
	chanMap := make(map[idwrap.IDWrap]chan LogMessage, 10)
	return LogChanMap{
		chanMap: chanMap,
		mt:      &sync.Mutex{},
	}
}

const bufferSize = 32

// AddLogChannel registers a channel for one execution. The caller owns
// draining it and must call DeleteLogChannel when the execution finishes.
func (l *LogChanMap) AddLogChannel(executionID idwrap.IDWrap) chan LogMessage {
	lm := make(chan LogMessage, bufferSize)
	l.mt.Lock()
	defer l.mt.Unlock()
	l.chanMap[executionID] = lm
	return lm
}

func (l *LogChanMap) DeleteLogChannel(executionID idwrap.IDWrap) {
	l.mt.Lock()
	defer l.mt.Unlock()
	ch, ok := l.chanMap[executionID]
	if ok {
		close(ch)
	}
	delete(l.chanMap, executionID)
}

// SendLogMessage delivers one line to the channel, dropping it when the
// buffer is full so a slow consumer never stalls the run.
func SendLogMessage(ch chan LogMessage, logID idwrap.IDWrap, value string, level LogLevel, payload map[string]any) {
	msg := LogMessage{
		LogID: logID,
		Value: value,
		Level: level,
		JSON:  payloadToJSON(payload),
	}
	select {
	case ch <- msg:
	default:
	}
}

func (l *LogChanMap) SendMsgToExecution(executionID, logID idwrap.IDWrap, value string, level LogLevel, payload map[string]any) error {
	l.mt.Lock()
	defer l.mt.Unlock()
	ch, ok := l.chanMap[executionID]
	if !ok {
		return fmt.Errorf("execution %s has no log channel", executionID.String())
	}
	SendLogMessage(ch, logID, value, level, payload)
	return nil
}

func payloadToJSON(payload map[string]any) string {
	if len(payload) == 0 {
		return ""
	}
	by, err := json.Marshal(payload)
	if err != nil {
		return ""
	}
	return string(by)
}
