package relay

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/odvcencio/rapidgui/pkg/bus"
	rgerrors "github.com/odvcencio/rapidgui/pkg/errors"
	"github.com/odvcencio/rapidgui/pkg/logging"
)

// Caller invokes widget methods by name. *rapidgui.App satisfies it.
type Caller interface {
	Call(widget, method string, args ...any) (any, error)
}

// Subscriber is the subset of bus.MessageBus the control responder needs.
type Subscriber interface {
	Subscribe(ctx context.Context, subject string, handler bus.MessageHandler) (bus.Subscription, error)
}

// ControlRequest asks the window to run one widget method.
type ControlRequest struct {
	Widget string `json:"widget"`
	Method string `json:"method"`
	Args   []any  `json:"args,omitempty"`
}

// ControlReply carries the method result or the error that stopped it.
type ControlReply struct {
	Value any    `json:"value"`
	Error string `json:"error,omitempty"`
	Code  string `json:"code,omitempty"`
}

// ControlSubject is the subject a scene's control responder listens on.
func ControlSubject(prefix, scene string) string {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return Subject(prefix, scene, "control")
}

// ServeControl answers ControlRequests for scene until the subscription is
// cancelled or ctx ends. Getters block the responder until the render loop
// answers, exactly like a local call.
func ServeControl(ctx context.Context, sub Subscriber, prefix, scene string, c Caller, logger *logging.Logger) (bus.Subscription, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	logger = logger.WithComponent("control")

	return sub.Subscribe(ctx, ControlSubject(prefix, scene), func(msg *bus.Message) []byte {
		reply := handleControl(c, msg.Data)
		if reply.Error != "" {
			metricControlRequests.WithLabelValues("error").Inc()
			logger.Debug("control request failed", "error", reply.Error)
		} else {
			metricControlRequests.WithLabelValues("ok").Inc()
		}
		data, err := json.Marshal(reply)
		if err != nil {
			data, _ = json.Marshal(ControlReply{Error: err.Error(), Code: string(rgerrors.ErrCodeInternal)})
		}
		return data
	})
}

func handleControl(c Caller, data []byte) ControlReply {
	var req ControlRequest
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		return ControlReply{Error: "invalid request: " + err.Error(), Code: string(rgerrors.ErrCodeInvalidInput)}
	}
	if req.Widget == "" || req.Method == "" {
		return ControlReply{Error: "widget and method are required", Code: string(rgerrors.ErrCodeInvalidInput)}
	}

	v, err := c.Call(req.Widget, req.Method, req.Args...)
	if err != nil {
		return ControlReply{Error: err.Error(), Code: string(rgerrors.GetCode(err))}
	}
	return ControlReply{Value: v}
}
