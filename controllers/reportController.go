package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"go-pizzeria-management/helpers"
	"go-pizzeria-management/services"
)

type ReportController struct {
	reports *services.ReportService
	now     func() time.Time
}

func NewReportController(reports *services.ReportService) *ReportController {
	return &ReportController{reports: reports, now: time.Now}
}

func reportQuery(c *gin.Context) (services.ReportQuery, error) {
	limit, err := queryInt(c, "limit")
	if err != nil {
		return services.ReportQuery{}, err
	}
	return services.ReportQuery{
		From:     c.Query("from"),
		To:       c.Query("to"),
		Grouping: c.Query("group_by"),
		Limit:    limit,
	}, nil
}

func (rc *ReportController) Dashboard() gin.HandlerFunc {
	return func(c *gin.Context) {
		dashboard, err := rc.reports.Dashboard(c.Request.Context(), rc.now())
		if err != nil {
			helpers.RespondError(c, err)
			return
		}
		helpers.Respond(c, http.StatusOK, gin.H{"data": dashboard})
	}
}

func (rc *ReportController) Sales() gin.HandlerFunc {
	return func(c *gin.Context) {
		q, err := reportQuery(c)
		if err != nil {
			helpers.RespondError(c, err)
			return
		}
		report, err := rc.reports.Sales(c.Request.Context(), q)
		if err != nil {
			helpers.RespondError(c, err)
			return
		}
		helpers.Respond(c, http.StatusOK, gin.H{"data": report.Buckets, "grouping": report.Grouping, "totals": report.Totals})
	}
}

func (rc *ReportController) Products() gin.HandlerFunc {
	return func(c *gin.Context) {
		q, err := reportQuery(c)
		if err != nil {
			helpers.RespondError(c, err)
			return
		}
		products, err := rc.reports.Products(c.Request.Context(), q)
		if err != nil {
			helpers.RespondError(c, err)
			return
		}
		helpers.Respond(c, http.StatusOK, gin.H{"data": products})
	}
}

func (rc *ReportController) Times() gin.HandlerFunc {
	return func(c *gin.Context) {
		q, err := reportQuery(c)
		if err != nil {
			helpers.RespondError(c, err)
			return
		}
		report, err := rc.reports.Times(c.Request.Context(), q)
		if err != nil {
			helpers.RespondError(c, err)
			return
		}
		helpers.Respond(c, http.StatusOK, gin.H{"data": report})
	}
}

func (rc *ReportController) Channels() gin.HandlerFunc {
	return func(c *gin.Context) {
		q, err := reportQuery(c)
		if err != nil {
			helpers.RespondError(c, err)
			return
		}
		report, err := rc.reports.Channels(c.Request.Context(), q)
		if err != nil {
			helpers.RespondError(c, err)
			return
		}
		helpers.Respond(c, http.StatusOK, gin.H{"data": report.Channels, "totals": report.Totals})
	}
}
