package widgethost

import "github.com/go-drift/widgethost/pkg/dom"

// scriptAPI is the ScriptGlobal object. Go errors returned by its
// functions are thrown as script exceptions.
func (h *Host) scriptAPI() map[string]any {
	return map[string]any{
		"find": func(selector string) (any, error) {
			return h.FindInstance(selector)
		},
		"findAll": func(selector string) ([]any, error) {
			return h.FindAllInstances(selector)
		},
		"getInstance": func(el *dom.Element) any {
			if el == nil {
				return nil
			}
			inst, _ := h.GetInstance(el)
			return inst
		},
		"getAttachmentUrl": func(depName, key string) (string, error) {
			return h.AttachmentURL(depName, key)
		},
		"staticRender": func() error {
			return h.RunStaticRenderNow()
		},
		"transposeArray2D": TransposeArray2D,
		"dataframeToD3":    DataframeToRecords,
	}
}
