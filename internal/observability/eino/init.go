package eino

import (
	"sync"

	einocallbacks "github.com/cloudwego/eino/callbacks"
	cbtemplate "github.com/cloudwego/eino/utils/callbacks"
)

// Init 注册聊天模型回调，重复调用只生效一次
var Init = sync.OnceFunc(func() {
	einocallbacks.AppendGlobalHandlers(
		cbtemplate.NewHandlerHelper().
			ChatModel(newChatModelCallbackHandler()).
			Handler(),
	)
})
