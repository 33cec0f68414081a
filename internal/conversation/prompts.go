package conversation

import (
	"fmt"
	"regexp"
	"strings"
)

const systemPrompt = `You are a helpful clinic assistant chatbot.
You help users with basic medical inquiries and guide them to schedule appointments.
Keep responses short, friendly, and in Vietnamese.

When a user describes medical symptoms, always follow these steps in order:
1. First collect symptoms and identify the appropriate specialty
2. Once you have a specialty, use 'get_doctor_list' to find available doctors
3. After the user selects a doctor, use 'get_doctor_availability' to show available time slots
4. Finally, use 'create_appointment' to book the appointment with all details

Always try to determine a medical specialty based on the symptoms described.
For headaches, consider suggesting Neurology (Thần kinh).
For stomach issues, consider suggesting Gastroenterology (Nội tiêu hóa).
For skin problems, consider suggesting Dermatology (Da liễu).
For children, always suggest Pediatrics (Nhi khoa).
For heart-related symptoms, suggest Cardiology (Tim mạch).

ALWAYS use the appropriate function for each step in the workflow.`

const (
	greetingText       = "Xin chào! Tôi là trợ lý ảo của phòng khám. Tôi có thể giúp gì cho bạn?"
	restartedText      = "Cuộc hội thoại đã được khởi động lại. Bạn cần hỗ trợ gì ạ?"
	emptyMessageText   = "Tin nhắn trống"
	unprocessableText  = "Không thể xử lý yêu cầu"
	noReplyText        = "Tôi hiểu yêu cầu của bạn nhưng không thể tạo ra phản hồi phù hợp."
	noCandidatesText   = "Tôi đã nhận được tin nhắn của bạn nhưng không thể xử lý hợp lý."
	apologyFormat      = "Xin lỗi, tôi đang gặp một số vấn đề kỹ thuật. Vui lòng thử lại sau. Lỗi: %v"
	genericErrorFormat = "Đã xảy ra lỗi: %v"
)

// resultPrompt asks the model to turn a raw tool result into a user-facing
// Vietnamese summary with no code-formatted content.
func resultPrompt(functionName, resultJSON string) string {
	return fmt.Sprintf(`Dưới đây là kết quả từ function %s:
%s

Hãy diễn giải kết quả trên thành văn bản tự nhiên, thân thiện cho người dùng.
Nếu là danh sách bác sĩ, hãy giới thiệu từng bác sĩ một cách ngắn gọn.
Nếu là lịch trình, hãy trình bày các khung giờ có sẵn một cách rõ ràng.
Nếu là xác nhận đặt lịch, hãy xác nhận thông tin và cảm ơn người dùng.
Hãy trả lời bằng tiếng Việt, thân thiện và ngắn gọn.
QUAN TRỌNG: Chỉ trả về văn bản thuần túy, không bao gồm code blocks hay tool_code.`, functionName, resultJSON)
}

var (
	codeFenceRE  = regexp.MustCompile("(?s)```.*?```")
	blankLinesRE = regexp.MustCompile(`\n\s*\n`)
)

// stripCodeFences removes any code-fenced residue the model emits despite the
// plain-text instruction, then collapses leftover blank runs.
func stripCodeFences(text string) string {
	text = codeFenceRE.ReplaceAllString(text, "")
	text = blankLinesRE.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
