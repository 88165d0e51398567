package codec

import (
	"github.com/xaionaro-go/avplayback/types"
)

// FastDecodingOptions trades picture quality for decoding speed; useful
// on slow machines where the video would otherwise lag behind the clock.
func FastDecodingOptions(codecName Name) types.DictionaryItems {
	result := types.DictionaryItems{
		{Key: "flags2", Value: "+fast"},
	}
	switch codecName {
	case "h264", "hevc", "":
		result = append(result, types.DictionaryItem{Key: "skip_loop_filter", Value: "nonref"})
	}
	return result
}
