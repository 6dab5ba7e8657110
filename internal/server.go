package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/julienschmidt/httprouter"

	"vismapay/config"
	"vismapay/entity"
	"vismapay/services"
)

const (
	createCharge    = "/charge"
	chargeCardToken = "/charge/token"
	paymentStatus   = "/status/:order_number"
	capturePayment  = "/capture/:order_number"
	cancelPayment   = "/cancel/:order_number"
	getPayment      = "/payment/:order_number"
	createRefund    = "/refund"
	getRefund       = "/refund/:refund_id"
	cancelRefund    = "/refund/cancel/:refund_id"
	cardToken       = "/card_token/:card_token"
	merchantMethods = "/methods"
	paymentReturn   = "/return"
	paymentNotify   = "/notify"
)

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	payments   services.Payments
	database   services.Database
	logger     services.LogHandler
}

func NewServer(conf *config.Config) *Server {

	server := Server{
		conf: conf,
	}

	// register itself as a router for httpServer handler
	router := httprouter.New()
	server.Register(router)
	server.httpServer = &http.Server{
		Handler: router,
	}

	return &server
}

func (s *Server) Register(router *httprouter.Router) {
	router.POST(createCharge, s.createCharge)
	router.POST(chargeCardToken, s.chargeCardToken)
	router.GET(paymentStatus, s.paymentStatus)
	router.POST(capturePayment, s.capturePayment)
	router.POST(cancelPayment, s.cancelPayment)
	router.GET(getPayment, s.getPayment)
	router.POST(createRefund, s.createRefund)
	router.GET(getRefund, s.getRefund)
	router.POST(cancelRefund, s.cancelRefund)
	router.GET(cardToken, s.getCardToken)
	router.DELETE(cardToken, s.deleteCardToken)
	router.GET(merchantMethods, s.merchantMethods)
	router.GET(paymentReturn, s.paymentReturn)
	router.POST(paymentNotify, s.paymentNotify)
}

func (s *Server) SetPaymentsService(payments services.Payments) {
	s.payments = payments
}

func (s *Server) SetDatabase(database services.Database) {
	s.database = database
}

func (s *Server) SetLogger(logger services.LogHandler) {
	s.logger = logger
}

func (s *Server) Start() error {
	if s.conf == nil {
		return fmt.Errorf("configuration not loaded")
	}

	serverAddress := fmt.Sprintf("%s:%s", s.conf.Listen.BindIP, s.conf.Listen.Port)
	listener, err := net.Listen("tcp", serverAddress)
	if err != nil {
		return err
	}

	if s.conf.Listen.TLS {
		s.logger.Info(fmt.Sprintf("starting https TLS on %s", serverAddress))
		err = s.httpServer.ServeTLS(listener, s.conf.Listen.CertFile, s.conf.Listen.KeyFile)
	} else {
		s.logger.Info(fmt.Sprintf("starting http on %s", serverAddress))
		err = s.httpServer.Serve(listener)
	}

	return err
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", err)
	}
}

// writeError maps the client error taxonomy to HTTP status codes. Gateway
// errors come back as 502 with the gateway's own result code so the caller
// can branch on duplicate orders and maintenance breaks.
func (s *Server) writeError(w http.ResponseWriter, reqID string, err error) {
	switch KindOf(err) {
	case ErrInvalidParameters, ErrMacCheckFailed:
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case ErrApiReturned:
		body := map[string]interface{}{"error": err.Error()}
		if response := GatewayResponse(err); response != nil {
			body["result"] = response.ResultCode()
			if len(response.Errors) > 0 {
				body["errors"] = response.Errors
			}
		}
		s.writeJSON(w, http.StatusBadGateway, body)
	default:
		s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	s.logger.Warn(fmt.Sprintf("[%s] request failed: %v", reqID, err))
}

func (s *Server) createCharge(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	// Add request ID for tracing
	ctx := WithRequestID(r.Context())
	reqID := GetRequestID(ctx)

	if s.conf.DisablePayment {
		s.logger.Warn(fmt.Sprintf("[%s] charge rejected: payments disabled", reqID))
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	var charge entity.Charge
	if !s.decodeBody(w, r, reqID, &charge) {
		return
	}

	response, err := s.payments.CreateCharge(ctx, &charge)
	if err != nil {
		s.writeError(w, reqID, err)
		return
	}

	if s.database != nil {
		order := &entity.PaymentOrder{
			OrderNumber: charge.OrderNumber,
			Amount:      charge.Amount,
			Currency:    charge.Currency,
			Token:       response.Token,
			TimeOpened:  time.Now(),
		}
		if err = s.database.SavePaymentOrder(ctx, order); err != nil {
			s.logger.Error(fmt.Sprintf("[%s] save payment order %s", reqID, charge.OrderNumber), err)
		}
	}

	s.logger.Info(fmt.Sprintf("[%s] charge created: order %s", reqID, charge.OrderNumber))
	s.writeJSON(w, http.StatusOK, map[string]string{
		"token":       response.Token,
		"payment_url": s.payments.PaymentURL(response.Token),
	})
}

func (s *Server) chargeCardToken(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx := WithRequestID(r.Context())
	reqID := GetRequestID(ctx)

	if s.conf.DisablePayment {
		s.logger.Warn(fmt.Sprintf("[%s] token charge rejected: payments disabled", reqID))
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	var charge entity.Charge
	if !s.decodeBody(w, r, reqID, &charge) {
		return
	}

	response, err := s.payments.ChargeCardToken(ctx, &charge)
	if err != nil {
		s.writeError(w, reqID, err)
		return
	}

	s.logger.Info(fmt.Sprintf("[%s] token charge done: order %s", reqID, charge.OrderNumber))
	s.respondGateway(w, response)
}

func (s *Server) paymentStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	s.byOrderNumber(w, r, ps, s.payments.StatusWithOrderNumber)
}

func (s *Server) capturePayment(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	s.byOrderNumber(w, r, ps, s.payments.Capture)
}

func (s *Server) cancelPayment(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	s.byOrderNumber(w, r, ps, s.payments.Cancel)
}

func (s *Server) getPayment(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	s.byOrderNumber(w, r, ps, s.payments.GetPayment)
}

func (s *Server) createRefund(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx := WithRequestID(r.Context())
	reqID := GetRequestID(ctx)

	var refund entity.Refund
	if !s.decodeBody(w, r, reqID, &refund) {
		return
	}

	response, err := s.payments.CreateRefund(ctx, &refund)
	if err != nil {
		s.writeError(w, reqID, err)
		return
	}

	s.logger.Info(fmt.Sprintf("[%s] refund %d created for order %s", reqID, response.RefundId, refund.OrderNumber))
	s.respondGateway(w, response)
}

func (s *Server) getRefund(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx := WithRequestID(r.Context())
	reqID := GetRequestID(ctx)

	response, err := s.payments.GetRefund(ctx, ps.ByName("refund_id"))
	if err != nil {
		s.writeError(w, reqID, err)
		return
	}
	s.respondGateway(w, response)
}

func (s *Server) cancelRefund(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx := WithRequestID(r.Context())
	reqID := GetRequestID(ctx)

	response, err := s.payments.CancelRefund(ctx, ps.ByName("refund_id"))
	if err != nil {
		s.writeError(w, reqID, err)
		return
	}
	s.respondGateway(w, response)
}

func (s *Server) getCardToken(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx := WithRequestID(r.Context())
	reqID := GetRequestID(ctx)

	token := ps.ByName("card_token")
	response, err := s.payments.GetCardToken(ctx, token)
	if err != nil {
		s.writeError(w, reqID, err)
		return
	}

	if s.database != nil {
		card := entity.SavedCard{CardToken: token, TimeSaved: time.Now()}
		if len(response.Source) > 0 {
			if err = json.Unmarshal(response.Source, &card); err != nil {
				s.logger.Warn(fmt.Sprintf("[%s] card token: unreadable source: %v", reqID, err))
			}
			card.CardToken = token
		}
		if err = s.database.SaveCardToken(ctx, &card); err != nil {
			s.logger.Error(fmt.Sprintf("[%s] save card token", reqID), err)
		}
	}

	s.respondGateway(w, response)
}

func (s *Server) deleteCardToken(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx := WithRequestID(r.Context())
	reqID := GetRequestID(ctx)

	token := ps.ByName("card_token")
	response, err := s.payments.DeleteCardToken(ctx, token)
	if err != nil {
		s.writeError(w, reqID, err)
		return
	}

	if s.database != nil {
		if err = s.database.DeleteCardToken(ctx, token); err != nil {
			s.logger.Error(fmt.Sprintf("[%s] delete card token", reqID), err)
		}
	}

	s.logger.Info(fmt.Sprintf("[%s] card token deleted", reqID))
	s.respondGateway(w, response)
}

func (s *Server) merchantMethods(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx := WithRequestID(r.Context())
	reqID := GetRequestID(ctx)

	response, err := s.payments.GetMerchantPaymentMethods(ctx, r.URL.Query().Get("currency"))
	if err != nil {
		s.writeError(w, reqID, err)
		return
	}
	s.respondGateway(w, response)
}

// paymentReturn handles the browser redirect back from the gateway. The
// authcode is verified before the order ledger is touched; an inauthentic
// callback changes nothing and yields 400.
func (s *Server) paymentReturn(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx := WithRequestID(r.Context())
	reqID := GetRequestID(ctx)

	result, err := s.payments.CheckReturn(r.URL.Query())
	if err != nil {
		s.logger.Warn(fmt.Sprintf("[%s] return rejected: %v", reqID, err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	s.closeOrder(ctx, reqID, result)
	s.writeJSON(w, http.StatusOK, result)
}

// paymentNotify handles the asynchronous gateway notification. Parameters
// arrive as query parameters or as a form-encoded body; both are accepted.
func (s *Server) paymentNotify(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx := WithRequestID(r.Context())
	reqID := GetRequestID(ctx)

	params := r.URL.Query()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.logger.Error(fmt.Sprintf("[%s] payment notify: get body", reqID), err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if len(body) > 0 {
		parsed, e := url.ParseQuery(string(body))
		if e != nil {
			s.logger.Warn(fmt.Sprintf("[%s] payment notify: unreadable body: %v", reqID, e))
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		params = parsed
	}

	result, err := s.payments.CheckReturn(params)
	if err != nil {
		s.logger.Warn(fmt.Sprintf("[%s] notify rejected: %v", reqID, err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	s.closeOrder(ctx, reqID, result)
	w.WriteHeader(http.StatusOK)
}

// closeOrder persists an authenticated callback result and closes the
// matching ledger entry. Runs only after the MAC check has passed.
func (s *Server) closeOrder(ctx context.Context, reqID string, result *entity.ReturnParams) {
	s.logger.Info(fmt.Sprintf("[%s] callback: order %s, return code %s", reqID, result.OrderNumber, result.ReturnCode))
	if s.database == nil {
		return
	}

	if err := s.database.SavePaymentResult(ctx, result); err != nil {
		s.logger.Error(fmt.Sprintf("[%s] save payment result", reqID), err)
	}

	order, err := s.database.GetPaymentOrder(ctx, result.OrderNumber)
	if err != nil {
		s.logger.Warn(fmt.Sprintf("[%s] no ledger entry for order %s", reqID, result.OrderNumber))
		return
	}
	if order.IsCompleted {
		return
	}
	order.IsCompleted = true
	order.Result = result.ReturnCode
	order.Settled = result.Success()
	order.TimeClosed = time.Now()
	if err = s.database.SavePaymentOrder(ctx, order); err != nil {
		s.logger.Error(fmt.Sprintf("[%s] close payment order %s", reqID, order.OrderNumber), err)
	}
}

func (s *Server) byOrderNumber(w http.ResponseWriter, r *http.Request, ps httprouter.Params, call func(context.Context, string) (*entity.Response, error)) {
	ctx := WithRequestID(r.Context())
	reqID := GetRequestID(ctx)

	response, err := call(ctx, ps.ByName("order_number"))
	if err != nil {
		s.writeError(w, reqID, err)
		return
	}
	s.respondGateway(w, response)
}

// respondGateway relays the verbatim gateway reply to the caller.
func (s *Server) respondGateway(w http.ResponseWriter, response *entity.Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(response.Raw); err != nil {
		s.logger.Error("write response", err)
	}
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, reqID string, v interface{}) bool {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.logger.Error(fmt.Sprintf("[%s] read request body", reqID), err)
		w.WriteHeader(http.StatusBadRequest)
		return false
	}
	if err = json.Unmarshal(body, v); err != nil {
		s.logger.Error(fmt.Sprintf("[%s] decode request body", reqID), err)
		w.WriteHeader(http.StatusBadRequest)
		return false
	}
	return true
}
