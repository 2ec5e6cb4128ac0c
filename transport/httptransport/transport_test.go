package httptransport_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/dogmatiq/courier"
	"github.com/dogmatiq/courier/internal/fixtures"
	. "github.com/dogmatiq/courier/transport/httptransport"
	"github.com/dogmatiq/iago/iotest"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var _ = Describe("func New()", func() {
	It("applies the default options", func() {
		t, err := New("http://localhost:8080/rpc")
		Expect(err).ShouldNot(HaveOccurred())
		Expect(t.Address()).To(Equal("http://localhost:8080/rpc"))
		Expect(t.Timeout()).To(Equal(DefaultTimeout))
		Expect(t.DeliveryMode()).To(Equal(courier.Async))
	})

	It("applies the given options", func() {
		t, err := New(
			"https://example.org",
			WithTimeout(5*time.Second),
			WithDeliveryMode(courier.Sync),
		)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(t.Timeout()).To(Equal(5 * time.Second))
		Expect(t.DeliveryMode()).To(Equal(courier.Sync))
	})

	DescribeTable(
		"it returns an error if the address is not an absolute HTTP URL",
		func(address string) {
			_, err := New(address)
			Expect(err).Should(HaveOccurred())
			Expect(err.Error()).To(HavePrefix("invalid endpoint address (" + address + "): "))
		},
		Entry("relative", "/rpc"),
		Entry("unsupported scheme", "ftp://example.org"),
		Entry("no host", "http://"),
		Entry("unparseable", "http://[::1"),
	)

	It("returns an error if the timeout is not positive", func() {
		_, err := New("http://localhost", WithTimeout(0))
		Expect(err).To(MatchError("invalid timeout (0s): must be positive"))
	})
})

var _ = Describe("type Transport", func() {
	var (
		ctx      context.Context
		cancel   context.CancelFunc
		handler  http.HandlerFunc
		server   *httptest.Server
		received chan *http.Request
		bodies   chan string
	)

	BeforeEach(func() {
		ctx, cancel = context.WithTimeout(context.Background(), 3*time.Second)

		received = make(chan *http.Request, 10)
		bodies = make(chan string, 10)

		handler = fixtures.EchoHandler{}.ServeHTTP

		server = httptest.NewServer(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handler(w, r)
			}),
		)
	})

	AfterEach(func() {
		server.Close()
		cancel()
	})

	respondWith := func(status int, body string) {
		handler = func(w http.ResponseWriter, r *http.Request) {
			io.Copy(io.Discard, r.Body)
			w.WriteHeader(status)
			io.WriteString(w, body)
		}
	}

	send := func(payload any, options ...Option) courier.Outcome {
		t, err := New(server.URL, options...)
		Expect(err).ShouldNot(HaveOccurred())

		out, err := t.Send(ctx, payload).Wait(ctx)
		Expect(err).ShouldNot(HaveOccurred())

		return out
	}

	Describe("func Send()", func() {
		It("POSTs the payload verbatim as JSON", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				body, _ := io.ReadAll(r.Body)
				received <- r
				bodies <- string(body)
				io.WriteString(w, `{"result": null}`)
			}

			payload := `{"jsonrpc":"2.0","id":1,"method":"echo"}`
			send(payload)

			var r *http.Request
			Expect(received).To(Receive(&r))
			Expect(r.Method).To(Equal(http.MethodPost))
			Expect(r.Header.Get("Content-Type")).To(Equal("application/json"))
			Expect(bodies).To(Receive(Equal(payload)))
		})

		It("delivers the result of a successful call", func() {
			respondWith(http.StatusOK, `{"jsonrpc":"2.0","id":1,"result":"ok"}`)

			out := send(`{"jsonrpc":"2.0","id":1,"method":"x"}`)
			Expect(out.Err).ShouldNot(HaveOccurred())
			Expect(out.Data()).To(Equal(json.RawMessage(`"ok"`)))
		})

		It("round-trips the parameters of an echo call", func() {
			out := send(`{"jsonrpc":"2.0","id":1,"method":"echo","params":{"a":[1,2]}}`)
			Expect(out.Err).ShouldNot(HaveOccurred())
			Expect(out.Result).To(MatchJSON(`{"a":[1,2]}`))
		})

		It("round-trips a request through a loopback endpoint", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				body, _ := io.ReadAll(r.Body)
				io.WriteString(w, `{"result": `+string(body)+`}`)
			}

			req, err := courier.NewCallRequest(42, "<method>", map[string]any{"a": []int{1, 2}})
			Expect(err).ShouldNot(HaveOccurred())

			payload, err := req.Marshal()
			Expect(err).ShouldNot(HaveOccurred())

			out := send(payload)
			Expect(out.Err).ShouldNot(HaveOccurred())

			var result courier.Request
			Expect(out.UnmarshalResult(&result)).To(Succeed())
			Expect(result).To(Equal(req))
		})

		It("delivers a JSON-RPC error without the message prefix", func() {
			respondWith(http.StatusOK, `{"jsonrpc":"2.0","id":1,"error":{"code":-32601,"message":"Error: Method not found"}}`)

			out := send(`{"jsonrpc":"2.0","id":1,"method":"nope"}`)

			var rpcErr *courier.Error
			Expect(errors.As(out.Err, &rpcErr)).To(BeTrue())
			Expect(rpcErr.Code()).To(Equal(courier.MethodNotFoundCode))
			Expect(rpcErr.Message()).To(Equal("Method not found"))
			Expect(out.Result).To(BeNil())
		})

		It("delivers the generic error if the response has neither a result nor an error", func() {
			respondWith(http.StatusOK, `{"jsonrpc":"2.0","id":1}`)

			out := send(`{"jsonrpc":"2.0","id":1,"method":"x"}`)

			var rpcErr *courier.Error
			Expect(errors.As(out.Err, &rpcErr)).To(BeTrue())
			Expect(rpcErr.Code()).To(Equal(courier.UnspecifiedErrorCode))
			Expect(rpcErr.Message()).To(Equal(courier.GenericErrorMessage))
		})

		It("delivers the results of a batch in order", func() {
			respondWith(http.StatusOK, `[{"result":1},{"result":2}]`)

			out := send(`[{"jsonrpc":"2.0","id":1,"method":"a"},{"jsonrpc":"2.0","id":2,"method":"b"}]`)
			Expect(out.Err).ShouldNot(HaveOccurred())
			Expect(out.IsBatch).To(BeTrue())
			Expect(out.Results).To(Equal([]json.RawMessage{
				json.RawMessage(`1`),
				json.RawMessage(`2`),
			}))
		})

		It("does not collect errors from batch elements by default", func() {
			respondWith(http.StatusOK, `[{"result":1},{"error":{"code":5,"message":"x"}}]`)

			out := send(`[]`)
			Expect(out.Err).ShouldNot(HaveOccurred())
			Expect(out.Results).To(Equal([]json.RawMessage{json.RawMessage(`1`), nil}))
		})

		It("collects errors from batch elements when correlation is enabled", func() {
			respondWith(http.StatusOK, `[{"result":1},{"error":{"code":5,"message":"x"}}]`)

			out := send(`[]`, WithCorrelatedBatchErrors())

			var batchErr courier.BatchError
			Expect(errors.As(out.Err, &batchErr)).To(BeTrue())
			Expect(batchErr).To(HaveLen(1))
			Expect(batchErr[0].Code()).To(BeNumerically("==", 5))
			Expect(out.Results).To(Equal([]json.RawMessage{json.RawMessage(`1`), nil}))
		})

		It("delivers an InvalidInputError if the response is not valid JSON", func() {
			respondWith(http.StatusOK, `not json`)

			out := send(`{"jsonrpc":"2.0","id":1,"method":"x"}`)

			var inputErr courier.InvalidInputError
			Expect(errors.As(out.Err, &inputErr)).To(BeTrue())
			Expect(inputErr.Message).To(HavePrefix("json_decode error: "))
			Expect(out.Data()).To(BeNil())
		})

		It("delivers a TransportError without interpreting the body of a non-2xx response", func() {
			respondWith(http.StatusInternalServerError, `{"jsonrpc":"2.0","id":1,"error":{"code":1,"message":"x"}}`)

			out := send(`{"jsonrpc":"2.0","id":1,"method":"x"}`)

			var transportErr *courier.TransportError
			Expect(errors.As(out.Err, &transportErr)).To(BeTrue())
			Expect(transportErr.StatusCode).To(Equal(http.StatusInternalServerError))

			var rpcErr *courier.Error
			Expect(errors.As(out.Err, &rpcErr)).To(BeFalse())
		})

		It("delivers a TransportError if the endpoint is unreachable", func() {
			server.Close()

			out := send(`{"jsonrpc":"2.0","id":1,"method":"x"}`)

			var transportErr *courier.TransportError
			Expect(errors.As(out.Err, &transportErr)).To(BeTrue())
			Expect(transportErr.StatusCode).To(BeZero())
			Expect(transportErr.Cause).Should(HaveOccurred())
		})

		It("delivers a TransportError if the exchange exceeds the timeout", func() {
			release := make(chan struct{})
			defer close(release)

			handler = func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-release:
				case <-r.Context().Done():
				}
			}

			out := send(
				`{"jsonrpc":"2.0","id":1,"method":"x"}`,
				WithTimeout(20*time.Millisecond),
			)

			var transportErr *courier.TransportError
			Expect(errors.As(out.Err, &transportErr)).To(BeTrue())
		})

		It("delivers a TransportError if the response body cannot be read", func() {
			client := &http.Client{
				Transport: &fixtures.RoundTripperStub{
					RoundTripFunc: func(r *http.Request) (*http.Response, error) {
						return &http.Response{
							StatusCode: http.StatusOK,
							Body:       io.NopCloser(iotest.NewFailer(nil, nil)),
							Request:    r,
						}, nil
					},
				},
			}

			out := send(`{}`, WithHTTPClient(client))

			var transportErr *courier.TransportError
			Expect(errors.As(out.Err, &transportErr)).To(BeTrue())
			Expect(transportErr.StatusCode).To(Equal(http.StatusOK))
			Expect(out.Err.Error()).To(HavePrefix("unable to read HTTP response body: "))
			Expect(errors.Is(out.Err, iotest.ErrRead)).To(BeTrue())
		})

		It("delivers an InvalidInputError without making a request if the payload is not a string", func() {
			client := &http.Client{
				Transport: &fixtures.RoundTripperStub{},
			}

			out := send(123, WithHTTPClient(client))

			var inputErr courier.InvalidInputError
			Expect(errors.As(out.Err, &inputErr)).To(BeTrue())
			Expect(inputErr.Message).To(Equal("payload must be a string, got int"))
		})

		It("delivers the same outcome in both delivery modes", func() {
			payload := `{"jsonrpc":"2.0","id":1,"method":"error","params":[1]}`

			syncOut := send(payload, WithDeliveryMode(courier.Sync))
			asyncOut := send(payload, WithDeliveryMode(courier.Async))

			Expect(syncOut).To(Equal(asyncOut))

			var rpcErr *courier.Error
			Expect(errors.As(syncOut.Err, &rpcErr)).To(BeTrue())
			Expect(rpcErr.Code()).To(BeNumerically("==", 123))
			Expect(rpcErr.Message()).To(Equal("boom"))
			Expect(rpcErr.Data()).To(MatchJSON(`[1]`))
		})

		It("resolves the call before returning in sync mode", func() {
			t, err := New(server.URL, WithDeliveryMode(courier.Sync))
			Expect(err).ShouldNot(HaveOccurred())

			call := t.Send(ctx, `{"jsonrpc":"2.0","id":1,"method":"echo"}`)
			Expect(call.Done()).To(BeClosed())
		})

		It("applies middleware with the first option outermost", func() {
			var (
				m     sync.Mutex
				order []string
			)

			mw := func(name string) courier.Middleware {
				return func(next courier.Exchanger) courier.Exchanger {
					return courier.ExchangerFunc(func(ctx context.Context, p string) courier.Outcome {
						m.Lock()
						order = append(order, name)
						m.Unlock()
						return next.Exchange(ctx, p)
					})
				}
			}

			send(
				`{"jsonrpc":"2.0","id":1,"method":"echo"}`,
				WithMiddleware(mw("outer")),
				WithMiddleware(mw("inner")),
			)

			m.Lock()
			defer m.Unlock()
			Expect(order).To(Equal([]string{"outer", "inner"}))
		})

		It("logs each exchange", func() {
			core, logs := observer.New(zapcore.DebugLevel)

			send(
				`{"jsonrpc":"2.0","id":1,"method":"echo"}`,
				WithZapLogger(zap.New(core)),
			)

			entries := logs.AllUntimed()
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].LoggerName).To(Equal("courier"))
			Expect(entries[0].Message).To(Equal("call echo"))
			Expect(entries[0].ContextMap()).To(HaveKeyWithValue("endpoint", server.URL))
		})

		It("logs payloads that are not strings", func() {
			core, logs := observer.New(zapcore.DebugLevel)

			send(struct{}{}, WithZapLogger(zap.New(core)))

			entries := logs.AllUntimed()
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].Level).To(Equal(zapcore.ErrorLevel))
			Expect(entries[0].ContextMap()).To(HaveKeyWithValue("error", "payload must be a string, got struct {}"))
		})
	})

	Describe("func SendFunc()", func() {
		It("returns the outcome in sync mode", func() {
			t, err := New(server.URL, WithDeliveryMode(courier.Sync))
			Expect(err).ShouldNot(HaveOccurred())

			out := t.SendFunc(ctx, `{"jsonrpc":"2.0","id":1,"method":"echo","params":[1]}`, nil)
			Expect(out.Err).ShouldNot(HaveOccurred())
			Expect(out.Result).To(MatchJSON(`[1]`))
		})

		It("invokes the callback exactly once in async mode", func() {
			t, err := New(server.URL)
			Expect(err).ShouldNot(HaveOccurred())

			outcomes := make(chan courier.Outcome, 2)

			out := t.SendFunc(
				ctx,
				`{"jsonrpc":"2.0","id":1,"method":"echo","params":[1]}`,
				func(o courier.Outcome) {
					outcomes <- o
				},
			)
			Expect(out).To(Equal(courier.Outcome{}))

			var o courier.Outcome
			Eventually(outcomes).Should(Receive(&o))
			Expect(o.Result).To(MatchJSON(`[1]`))
			Consistently(outcomes).ShouldNot(Receive())
		})

		It("panics if the callback is nil in async mode", func() {
			t, err := New(server.URL)
			Expect(err).ShouldNot(HaveOccurred())

			Expect(func() {
				t.SendFunc(ctx, `{}`, nil)
			}).To(PanicWith("unable to send JSON-RPC payload: a callback is required in async delivery mode"))
		})
	})
})
