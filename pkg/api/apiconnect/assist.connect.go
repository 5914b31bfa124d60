package apiconnect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/settleup/pkg/api"
)

const AssistServiceName = "settleup.v1.AssistService"

const (
	AssistServiceCategorizeProcedure         = "/settleup.v1.AssistService/Categorize"
	AssistServiceParseExpensesTextProcedure  = "/settleup.v1.AssistService/ParseExpensesText"
	AssistServiceExplainSettlementsProcedure = "/settleup.v1.AssistService/ExplainSettlements"
	AssistServiceGetMonthlyInsightsProcedure = "/settleup.v1.AssistService/GetMonthlyInsights"
)

// AssistServiceHandler is implemented by the server side of AssistService.
type AssistServiceHandler interface {
	Categorize(context.Context, *connect.Request[api.CategorizeRequest]) (*connect.Response[api.CategorizeResponse], error)
	ParseExpensesText(context.Context, *connect.Request[api.ParseExpensesTextRequest]) (*connect.Response[api.ParseExpensesTextResponse], error)
	ExplainSettlements(context.Context, *connect.Request[api.ExplainSettlementsRequest]) (*connect.Response[api.ExplainSettlementsResponse], error)
	GetMonthlyInsights(context.Context, *connect.Request[api.GetMonthlyInsightsRequest]) (*connect.Response[api.GetMonthlyInsightsResponse], error)
}

// NewAssistServiceHandler builds an HTTP handler for AssistService and returns
// the path prefix to mount it on.
func NewAssistServiceHandler(svc AssistServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return "/" + AssistServiceName + "/", serviceMux(map[string]http.Handler{
		AssistServiceCategorizeProcedure:         connect.NewUnaryHandler(AssistServiceCategorizeProcedure, svc.Categorize, opts...),
		AssistServiceParseExpensesTextProcedure:  connect.NewUnaryHandler(AssistServiceParseExpensesTextProcedure, svc.ParseExpensesText, opts...),
		AssistServiceExplainSettlementsProcedure: connect.NewUnaryHandler(AssistServiceExplainSettlementsProcedure, svc.ExplainSettlements, opts...),
		AssistServiceGetMonthlyInsightsProcedure: connect.NewUnaryHandler(AssistServiceGetMonthlyInsightsProcedure, svc.GetMonthlyInsights, opts...),
	})
}

// AssistServiceClient is a client for AssistService.
type AssistServiceClient interface {
	Categorize(context.Context, *connect.Request[api.CategorizeRequest]) (*connect.Response[api.CategorizeResponse], error)
	ParseExpensesText(context.Context, *connect.Request[api.ParseExpensesTextRequest]) (*connect.Response[api.ParseExpensesTextResponse], error)
	ExplainSettlements(context.Context, *connect.Request[api.ExplainSettlementsRequest]) (*connect.Response[api.ExplainSettlementsResponse], error)
	GetMonthlyInsights(context.Context, *connect.Request[api.GetMonthlyInsightsRequest]) (*connect.Response[api.GetMonthlyInsightsResponse], error)
}

// NewAssistServiceClient constructs a client for AssistService at baseURL.
func NewAssistServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) AssistServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &assistServiceClient{
		categorize:         connect.NewClient[api.CategorizeRequest, api.CategorizeResponse](httpClient, baseURL+AssistServiceCategorizeProcedure, opts...),
		parseExpensesText:  connect.NewClient[api.ParseExpensesTextRequest, api.ParseExpensesTextResponse](httpClient, baseURL+AssistServiceParseExpensesTextProcedure, opts...),
		explainSettlements: connect.NewClient[api.ExplainSettlementsRequest, api.ExplainSettlementsResponse](httpClient, baseURL+AssistServiceExplainSettlementsProcedure, opts...),
		getMonthlyInsights: connect.NewClient[api.GetMonthlyInsightsRequest, api.GetMonthlyInsightsResponse](httpClient, baseURL+AssistServiceGetMonthlyInsightsProcedure, opts...),
	}
}

type assistServiceClient struct {
	categorize         *connect.Client[api.CategorizeRequest, api.CategorizeResponse]
	parseExpensesText  *connect.Client[api.ParseExpensesTextRequest, api.ParseExpensesTextResponse]
	explainSettlements *connect.Client[api.ExplainSettlementsRequest, api.ExplainSettlementsResponse]
	getMonthlyInsights *connect.Client[api.GetMonthlyInsightsRequest, api.GetMonthlyInsightsResponse]
}

func (c *assistServiceClient) Categorize(ctx context.Context, req *connect.Request[api.CategorizeRequest]) (*connect.Response[api.CategorizeResponse], error) {
	return c.categorize.CallUnary(ctx, req)
}

func (c *assistServiceClient) ParseExpensesText(ctx context.Context, req *connect.Request[api.ParseExpensesTextRequest]) (*connect.Response[api.ParseExpensesTextResponse], error) {
	return c.parseExpensesText.CallUnary(ctx, req)
}

func (c *assistServiceClient) ExplainSettlements(ctx context.Context, req *connect.Request[api.ExplainSettlementsRequest]) (*connect.Response[api.ExplainSettlementsResponse], error) {
	return c.explainSettlements.CallUnary(ctx, req)
}

func (c *assistServiceClient) GetMonthlyInsights(ctx context.Context, req *connect.Request[api.GetMonthlyInsightsRequest]) (*connect.Response[api.GetMonthlyInsightsResponse], error) {
	return c.getMonthlyInsights.CallUnary(ctx, req)
}
