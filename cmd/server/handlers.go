package main

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cyw0ng95/vulnintel/pkg/cvss/severity"
	"github.com/cyw0ng95/vulnintel/pkg/model"
	"github.com/cyw0ng95/vulnintel/pkg/query"
	"github.com/cyw0ng95/vulnintel/pkg/query/export"
)

// httpErrorResponse sends an error response with the given code and message.
func httpErrorResponse(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{
		"retcode": code,
		"message": message,
		"payload": nil,
	})
}

// httpSuccessResponse sends a success response with the given payload.
func httpSuccessResponse(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"retcode": 0,
		"message": "success",
		"payload": payload,
	})
}

// registerHandlers registers the read-only query endpoints on the provided
// router group.
func registerHandlers(restful *gin.RouterGroup, svc *query.Service) {
	restful.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	restful.GET("/cve/:id", func(c *gin.Context) {
		cve, ok, err := svc.CVEByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			httpErrorResponse(c, http.StatusInternalServerError, err.Error())
			return
		}
		if !ok {
			httpErrorResponse(c, http.StatusNotFound, "cve not found")
			return
		}
		httpSuccessResponse(c, cve)
	})

	restful.GET("/cve", func(c *gin.Context) {
		req, err := cveRequestFromQuery(c)
		if err != nil {
			httpErrorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
		res, err := svc.CVEs(c.Request.Context(), req)
		if err != nil {
			httpErrorResponse(c, http.StatusInternalServerError, err.Error())
			return
		}
		httpSuccessResponse(c, gin.H{"cves": res.CVEs, "total": res.Total, "page": res.Page})
	})

	restful.GET("/cve/export", func(c *gin.Context) {
		req, err := cveRequestFromQuery(c)
		if err != nil {
			httpErrorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
		res, err := svc.CVEs(c.Request.Context(), req)
		if err != nil {
			httpErrorResponse(c, http.StatusInternalServerError, err.Error())
			return
		}
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", `attachment; filename="cves.xlsx"`)
		if err := export.WriteXLSX(c.Writer, res.CVEs); err != nil {
			httpErrorResponse(c, http.StatusInternalServerError, err.Error())
			return
		}
	})

	restful.GET("/vendor/:name", func(c *gin.Context) {
		v, ok, err := svc.VendorByName(c.Request.Context(), c.Param("name"))
		if err != nil {
			httpErrorResponse(c, http.StatusInternalServerError, err.Error())
			return
		}
		if !ok {
			httpErrorResponse(c, http.StatusNotFound, "vendor not found")
			return
		}
		httpSuccessResponse(c, v)
	})

	restful.GET("/product", func(c *gin.Context) {
		page, _ := strconv.Atoi(c.Query("page"))
		pageSize, _ := strconv.Atoi(c.Query("page_size"))
		res, err := svc.Products(c.Request.Context(), query.ProductRequest{
			Vendor: c.Query("vendor"), Product: c.Query("product"), Page: page, PageSize: pageSize,
		})
		if err != nil {
			httpErrorResponse(c, http.StatusInternalServerError, err.Error())
			return
		}
		httpSuccessResponse(c, gin.H{"products": res.Products, "total": res.Total, "page": res.Page})
	})

	restful.GET("/kb", func(c *gin.Context) {
		page, _ := strconv.Atoi(c.Query("page"))
		pageSize, _ := strconv.Atoi(c.Query("page_size"))
		res, err := svc.KBs(c.Request.Context(), query.KBRequest{
			Name: c.Query("name"), Source: model.KBSource(c.Query("source")), Page: page, PageSize: pageSize,
		})
		if err != nil {
			httpErrorResponse(c, http.StatusInternalServerError, err.Error())
			return
		}
		httpSuccessResponse(c, gin.H{"entries": res.Entries, "total": res.Total, "page": res.Page})
	})
}

// cveRequestFromQuery builds a query.Request from the /cve and /cve/export
// handlers' shared set of query-string filters.
func cveRequestFromQuery(c *gin.Context) (query.Request, error) {
	req := query.Request{
		CVEID:      c.Query("cve_id"),
		Severity:   severity.Band(c.Query("severity")),
		Vendor:     c.Query("vendor"),
		Product:    c.Query("product"),
		Descending: c.Query("descending") == "true",
	}
	if v := c.Query("year"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			return query.Request{}, fmt.Errorf("invalid year: %w", err)
		}
		req.Year = year
	}
	if v := c.Query("translated"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return query.Request{}, fmt.Errorf("invalid translated: %w", err)
		}
		req.Translated = &b
	}
	if v := c.Query("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil {
			return query.Request{}, fmt.Errorf("invalid page: %w", err)
		}
		req.Page = page
	}
	if v := c.Query("page_size"); v != "" {
		pageSize, err := strconv.Atoi(v)
		if err != nil {
			return query.Request{}, fmt.Errorf("invalid page_size: %w", err)
		}
		req.PageSize = pageSize
	}
	return req, nil
}
