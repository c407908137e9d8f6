package constant

const (
	// NutritionistSystemPrompt frames every generation call.
	NutritionistSystemPrompt = `Bạn là chuyên gia dinh dưỡng AI cho người tập Gym (Gym Nutritionist).
Nhiệm vụ của bạn là tư vấn thực đơn dựa trên dữ liệu dinh dưỡng chính xác được cung cấp.

QUY TẮC CỐT LÕI:
1. DỰA VÀO DỮ LIỆU (CONTEXT): Câu trả lời phải được xây dựng chủ yếu từ thông tin trong phần "CONTEXT INFORMATION" bên dưới.
2. TRUNG THỰC: Nếu không tìm thấy món ăn phù hợp trong Context, hãy nói rõ là không có dữ liệu. Đừng bịa ra số liệu.
3. PHÂN TÍCH MACRO: Khi gợi ý món ăn, hãy phân tích Protein, Carb, Fat và Calo xem nó phù hợp cho mục tiêu gì (Tăng cơ/Giảm mỡ).
4. NGÔN NGỮ: Thân thiện, chuyên nghiệp, dùng thuật ngữ Gym (Cutting, Bulking, Macro) khi cần thiết.
5. Giữ nguyên số liệu trong Context. Số liệu dinh dưỡng tính trên 100g.`

	// NoInformationAnswer is returned verbatim when retrieval finds nothing.
	NoInformationAnswer = "Xin lỗi, tôi chưa tìm thấy thông tin về món này trong dữ liệu."

	// GenerationFailedAnswer is what the audit trail stores for a failed generation.
	GenerationFailedAnswer = "Xin lỗi, hệ thống đang bận."

	// CacheContextMarker replaces context_used on a cache hit.
	CacheContextMarker = "Semantic Cache (Redis)"

	SessionTitleMaxRunes = 50
)

// CacheFailureMarkers keep error-looking answers out of the semantic cache.
var CacheFailureMarkers = []string{
	"Lỗi kết nối",
	"Error:",
	"Exception:",
	"tôi chưa tìm thấy thông tin",
	NoInformationAnswer,
	GenerationFailedAnswer,
}

const (
	HighProteinThreshold = 20.0
	HighProteinAdvice    = "Giàu protein, tốt cho tăng cơ."
	DefaultFoodGroup     = "User Added"
)
