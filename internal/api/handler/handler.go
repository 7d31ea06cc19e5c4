package handler

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/d60-Lab/socialgraph/internal/model"
	"github.com/d60-Lab/socialgraph/internal/service"
)

const maxTagLength = 100

// Handler 关系链与话题接口
type Handler struct {
	follows  service.FollowService
	hashtags service.HashtagService
}

func NewHandler(follows service.FollowService, hashtags service.HashtagService) *Handler {
	return &Handler{follows: follows, hashtags: hashtags}
}

// RegisterValidators 注册自定义 binding 校验：hashtag
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("hashtag", validHashtag)
}

// validHashtag 规范化后非空、不含空白、长度不超过 maxTagLength
func validHashtag(fl validator.FieldLevel) bool {
	tag := model.NormalizeTag(fl.Field().String())
	if tag == "" || len(tag) > maxTagLength {
		return false
	}
	return !strings.ContainsFunc(tag, unicode.IsSpace)
}

func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return v
}
