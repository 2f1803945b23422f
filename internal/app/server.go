// Package app wires configuration, the dataset and the flow chart
// event loop into an HTTP server.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mapcviz/profit-flow-backend/internal/controller"
	"github.com/mapcviz/profit-flow-backend/middleware"
	"github.com/mapcviz/profit-flow-backend/profitdata"
)

type datasetResponse struct {
	MinYear        int                       `json:"minYear"`
	MaxYear        int                       `json:"maxYear"`
	BubbleValue    float64                   `json:"bubbleValue"`
	Lifespan       float64                   `json:"lifespan"`
	Profits        []profitdata.ProfitRecord `json:"profits"`
	HomePriceIndex []profitdata.HPIRecord    `json:"homePriceIndex"`
}

type scrubRequest struct {
	Time float64 `json:"time"`
}

type handlers struct {
	flow   *controller.FlowChart
	series *profitdata.Series
	hpi    *profitdata.HPISeries
}

func (h *handlers) dataset(c echo.Context) error {
	chartConf := h.flow.ChartConfig()
	resp := datasetResponse{
		MinYear:     h.series.MinYear(),
		MaxYear:     h.series.MaxYear(),
		BubbleValue: chartConf.BubbleValue,
		Lifespan:    chartConf.Lifespan,
		Profits:     h.series.Records(),
	}
	if h.hpi != nil {
		resp.HomePriceIndex = h.hpi.Records()
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *handlers) frame(c echo.Context) error {
	frame, err := h.flow.Frame(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	return c.JSON(http.StatusOK, frame)
}

func (h *handlers) scrub(c echo.Context) error {
	req := scrubRequest{}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.flow.Scrub(c.Request().Context(), req.Time); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	frame, err := h.flow.Frame(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	return c.JSON(http.StatusOK, frame)
}

func (h *handlers) play(c echo.Context) error {
	if err := h.flow.Play(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *handlers) pause(c echo.Context) error {
	if err := h.flow.Pause(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *handlers) reset(c echo.Context) error {
	if err := h.flow.Reset(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// stream pushes one SSE event per physics tick until the client
// disconnects or the event loop stops.
func (h *handlers) stream(c echo.Context) error {
	ctx := c.Request().Context()
	feed, err := h.flow.Subscribe(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	defer h.flow.Unsubscribe(context.Background(), feed)
	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set("Cache-Control", "no-store")
	resp.WriteHeader(http.StatusOK)
	resp.Flush()
	enc := jsonEncoderFor(c)
	for {
		select {
		case <-ctx.Done():
			return nil
		case frame, ok := <-feed:
			if !ok {
				return nil
			}
			if err := enc(frame); err != nil {
				return nil
			}
			resp.Flush()
		}
	}
}

func jsonEncoderFor(c echo.Context) func(controller.Frame) error {
	resp := c.Response()
	return func(frame controller.Frame) error {
		data, err := json.Marshal(frame)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(resp, "data: %s\n\n", data)
		return err
	}
}

func newServer(flow *controller.FlowChart, series *profitdata.Series, hpi *profitdata.HPISeries) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	middleware.AddAll(e)
	h := &handlers{flow: flow, series: series, hpi: hpi}
	e.GET("/api/dataset", h.dataset)
	e.GET("/api/frame", h.frame)
	e.POST("/api/scrub", h.scrub)
	e.POST("/api/play", h.play)
	e.POST("/api/pause", h.pause)
	e.POST("/api/reset", h.reset)
	e.GET("/api/stream", h.stream)
	return e
}

// Run loads the dataset, starts the chart event loop and serves HTTP
// until SIGINT/SIGTERM.
func Run() {
	conf := GetEnvConfig()
	level, err := zerolog.ParseLevel(conf.LogLevel)
	if err != nil {
		println("failed to parse LogLevel: '" + conf.LogLevel + "', setting to debug")
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	if !conf.Production {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	log.Info().Msgf("Config: %#v", conf)

	series, hpi, err := loadDataset(conf)
	if err != nil {
		log.Fatal().Msgf("failed to load dataset: %v", err)
	}
	chartConf, driverConf, err := LoadChartTuning(conf.ChartTuningFile)
	if err != nil {
		log.Fatal().Msgf("failed to load chart tuning: %v", err)
	}
	if err := chartConf.Validate(); err != nil {
		log.Fatal().Msgf("invalid chart tuning: %v", err)
	}

	ctx, stop := signal.NotifyContext(log.Logger.WithContext(context.Background()), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	flow := controller.NewFlowChart(series, hpi, chartConf, driverConf)
	go flow.Run(ctx)

	e := newServer(flow, series, hpi)
	server := http.Server{
		Addr:         ":" + conf.Port,
		Handler:      e,
		ReadTimeout:  conf.HTTPTimeout,
		// no WriteTimeout: /api/stream holds the response open
	}
	go func() {
		<-ctx.Done()
		server.Shutdown(context.Background())
	}()
	log.Info().Msgf("serving chart API on http://0.0.0.0:%s/api/frame", conf.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Msgf("ListenAndServe: %s", err)
	}
}

// loadDataset reads both CSVs. A missing HPI file is tolerated, a
// missing or malformed profit file is fatal.
func loadDataset(conf Config) (*profitdata.Series, *profitdata.HPISeries, error) {
	profitFile, err := os.Open(conf.ProfitCSV)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to open profit data")
	}
	defer profitFile.Close()
	series, err := profitdata.LoadProfits(profitFile)
	if err != nil {
		return nil, nil, err
	}
	hpiFile, err := os.Open(conf.HPICSV)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn().Msgf("no home price index data at %s, serving without it", conf.HPICSV)
			return series, nil, nil
		}
		return nil, nil, errors.Wrap(err, "failed to open home price index data")
	}
	defer hpiFile.Close()
	hpi, err := profitdata.LoadHPI(hpiFile)
	if err != nil {
		return nil, nil, err
	}
	return series, hpi, nil
}
