// Package docs swagger 文档，由 swag init 生成后手工精简。
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/follows": {
            "post": {"tags": ["关系链"], "summary": "关注用户", "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["关系链"], "summary": "取消关注", "responses": {"200": {"description": "OK"}}}
        },
        "/close-friends": {
            "post": {"tags": ["关系链"], "summary": "标记密友", "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["关系链"], "summary": "取消密友", "responses": {"200": {"description": "OK"}}}
        },
        "/users/{id}/followers": {"get": {"tags": ["关系链"], "summary": "查询粉丝列表", "responses": {"200": {"description": "OK"}}}},
        "/users/{id}/following": {"get": {"tags": ["关系链"], "summary": "查询关注列表", "responses": {"200": {"description": "OK"}}}},
        "/users/{id}/close-friends": {"get": {"tags": ["关系链"], "summary": "密友列表", "responses": {"200": {"description": "OK"}}}},
        "/users/{id}/mutual/{other}": {"get": {"tags": ["关系链"], "summary": "共同关注", "responses": {"200": {"description": "OK"}}}},
        "/users/{id}/relationship/{other}": {"get": {"tags": ["关系链"], "summary": "关系快照", "responses": {"200": {"description": "OK"}}}},
        "/users/{id}/stats": {"get": {"tags": ["关系链"], "summary": "关注统计", "responses": {"200": {"description": "OK"}}}},
        "/users/{id}/suggestions": {"get": {"tags": ["发现"], "summary": "推荐关注", "responses": {"200": {"description": "OK"}}}},
        "/users/{id}/friend-requests/received": {"get": {"tags": ["好友申请"], "summary": "收到的好友申请", "responses": {"200": {"description": "OK"}}}},
        "/users/{id}/friend-requests/sent": {"get": {"tags": ["好友申请"], "summary": "发出的好友申请", "responses": {"200": {"description": "OK"}}}},
        "/users/{id}/mentions": {"get": {"tags": ["发现"], "summary": "用户被 @ 记录", "responses": {"200": {"description": "OK"}}}},
        "/users/{id}/hashtags": {"get": {"tags": ["发现"], "summary": "用户常用话题", "responses": {"200": {"description": "OK"}}}},
        "/friend-requests": {"post": {"tags": ["好友申请"], "summary": "发送好友申请", "responses": {"200": {"description": "OK"}}}},
        "/friend-requests/{id}": {
            "get": {"tags": ["好友申请"], "summary": "查询好友申请", "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "delete": {"tags": ["好友申请"], "summary": "撤回好友申请", "responses": {"200": {"description": "OK"}}}
        },
        "/friend-requests/{id}/accept": {"post": {"tags": ["好友申请"], "summary": "接受好友申请", "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}}}},
        "/friend-requests/{id}/decline": {"post": {"tags": ["好友申请"], "summary": "拒绝好友申请", "responses": {"200": {"description": "OK"}}}},
        "/hashtags": {"put": {"tags": ["话题"], "summary": "创建话题", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}},
        "/hashtags/trending": {"get": {"tags": ["发现"], "summary": "热门话题", "responses": {"200": {"description": "OK"}}}},
        "/hashtags/search": {"get": {"tags": ["发现"], "summary": "搜索话题", "responses": {"200": {"description": "OK"}}}},
        "/hashtags/{tag}/posts": {"get": {"tags": ["发现"], "summary": "话题帖子", "responses": {"200": {"description": "OK"}}}},
        "/hashtags/{tag}/analytics": {"get": {"tags": ["发现"], "summary": "话题统计", "responses": {"200": {"description": "OK"}}}},
        "/hashtags/{tag}/related": {"get": {"tags": ["发现"], "summary": "相关话题", "responses": {"200": {"description": "OK"}}}},
        "/hashtags/{tag}/block": {
            "post": {"tags": ["话题"], "summary": "屏蔽话题", "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["话题"], "summary": "取消屏蔽话题", "responses": {"200": {"description": "OK"}}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Social Graph API",
	Description:      "关注关系、好友申请与话题发现",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
