package monitor

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

const maxTrackedRequests = 4096

// PageSource adapts a live rod page to the EventSource interface. Rod
// delivers CDP events through EachEvent on a context-scoped clone of the
// page; cancelling that context detaches every callback at once, which is
// exactly what the returned stop function does.
type PageSource struct {
	page *rod.Page
}

func NewPageSource(page *rod.Page) *PageSource {
	return &PageSource{page: page}
}

func (s *PageSource) Subscribe(h Handlers) (func(), error) {
	ctx, cancel := context.WithCancel(context.Background())
	p := s.page.Context(ctx)

	// LoadingFailed events only carry a request id, so remember the URL
	// from each RequestWillBeSent to name the request that died.
	var mu sync.Mutex
	requestURLs := make(map[proto.NetworkRequestID]string)

	wait := p.EachEvent(
		func(e *proto.RuntimeConsoleAPICalled) {
			if h.OnLog == nil {
				return
			}
			h.OnLog(LogEvent{
				Level:   string(e.Type),
				Message: consoleText(p, e.Args),
				Stack:   formatStack(e.StackTrace),
			})
		},
		func(e *proto.RuntimeExceptionThrown) {
			if h.OnException == nil || e.ExceptionDetails == nil {
				return
			}
			d := e.ExceptionDetails
			msg := d.Text
			if d.Exception != nil && d.Exception.Description != "" {
				msg = d.Exception.Description
			}
			h.OnException(ExceptionEvent{
				Message: msg,
				Stack:   formatStack(d.StackTrace),
				URL:     d.URL,
			})
		},
		func(e *proto.NetworkRequestWillBeSent) {
			if e.Request == nil {
				return
			}
			mu.Lock()
			if len(requestURLs) >= maxTrackedRequests {
				// Coarse reset keeps the map bounded on long runs.
				requestURLs = make(map[proto.NetworkRequestID]string)
			}
			requestURLs[e.RequestID] = e.Request.URL
			mu.Unlock()
		},
		func(e *proto.NetworkLoadingFailed) {
			if h.OnRequestFailed == nil {
				return
			}
			mu.Lock()
			url := requestURLs[e.RequestID]
			delete(requestURLs, e.RequestID)
			mu.Unlock()
			h.OnRequestFailed(RequestFailedEvent{
				RequestURL: url,
				ErrorText:  e.ErrorText,
				Canceled:   e.Canceled,
			})
		},
		func(e *proto.NetworkResponseReceived) {
			if e.Response == nil {
				return
			}
			mu.Lock()
			delete(requestURLs, e.RequestID)
			mu.Unlock()
			if h.OnResponse == nil {
				return
			}
			h.OnResponse(ResponseEvent{
				URL:    e.Response.URL,
				Status: e.Response.Status,
			})
		},
	)
	go wait()
	return cancel, nil
}

// PageURL reports the page's current location, or "" when the page is gone.
func (s *PageSource) PageURL() string {
	info, err := s.page.Info()
	if err != nil || info == nil {
		return ""
	}
	return info.URL
}

// consoleText renders console call arguments the way devtools would,
// resolving remote object references through the page when possible.
func consoleText(p *rod.Page, args []*proto.RuntimeRemoteObject) string {
	var text string
	err := rod.Try(func() {
		list := p.MustObjectsToJSON(args)
		parts := make([]string, 0, len(args))
		for _, v := range list.Arr() {
			parts = append(parts, v.String())
		}
		text = strings.Join(parts, " ")
	})
	if err == nil {
		return text
	}
	// The object references may already be dead after a navigation; fall
	// back to whatever the event itself carried.
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		if s := remoteObjectText(arg); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

func remoteObjectText(o *proto.RuntimeRemoteObject) string {
	if o == nil {
		return ""
	}
	if o.Description != "" {
		return o.Description
	}
	if o.Value.Val() != nil {
		return o.Value.String()
	}
	return string(o.Type)
}

// formatStack renders a CDP stack trace one frame per line. CDP line and
// column numbers are 0-based.
func formatStack(st *proto.RuntimeStackTrace) string {
	if st == nil || len(st.CallFrames) == 0 {
		return ""
	}
	var b strings.Builder
	for _, f := range st.CallFrames {
		name := f.FunctionName
		if name == "" {
			name = "<anonymous>"
		}
		fmt.Fprintf(&b, "    at %s (%s:%d:%d)\n", name, f.URL, f.LineNumber+1, f.ColumnNumber+1)
	}
	return strings.TrimRight(b.String(), "\n")
}
