package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Body struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Body{Status: "success", Message: message, Data: data})
}

func Created(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, Body{Status: "success", Message: message, Data: data})
}

func Fail(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusBadRequest, Body{Status: "error", Message: message, Data: data})
}

func FailWithStatus(c *gin.Context, status int, message string) {
	c.JSON(status, Body{Status: "error", Message: message})
}
