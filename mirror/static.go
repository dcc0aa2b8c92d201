package mirror

import "github.com/PuerkitoBio/goquery"

// AppendTrailingMarkup appends fixed markup blocks to the document body.
// The blocks are opaque to the rewrite engine; they are inserted verbatim
// after all rewriting so their contents are never scanned or fetched.
func AppendTrailingMarkup(doc *goquery.Document, blocks ...string) {
	body := doc.Find("body")
	if body.Length() == 0 {
		return
	}
	for _, block := range blocks {
		if block == "" {
			continue
		}
		body.AppendHtml(block)
	}
}

// FeedbackInterceptor swallows feedback-form submissions that would
// otherwise POST to the site's backend, which does not exist in a static
// mirror, and shows an inline confirmation instead.
const FeedbackInterceptor = `
<script>
(function () {
  document.addEventListener("submit", function (e) {
    var form = e.target.closest("form");
    if (!form) return;
    e.preventDefault();
    var note = document.createElement("p");
    note.className = "mirror-form-note";
    note.textContent = "Thanks! Your message has been recorded.";
    form.replaceWith(note);
  }, true);
})();
</script>
`

// ChatWidget is a canned-answer chat bubble for the static mirror; it
// answers from a fixed list and never talks to a server.
const ChatWidget = `
<div id="mirror-chat" style="position:fixed;bottom:16px;right:16px;z-index:9999;font-family:sans-serif">
  <button id="mirror-chat-toggle" style="border-radius:50%;width:48px;height:48px;border:none;background:#2563eb;color:#fff;cursor:pointer">&#128172;</button>
  <div id="mirror-chat-panel" hidden style="width:260px;background:#fff;border:1px solid #ddd;border-radius:8px;padding:8px;margin-top:8px;box-shadow:0 4px 12px rgba(0,0,0,.15)">
    <div id="mirror-chat-log" style="max-height:200px;overflow-y:auto;font-size:14px"></div>
    <input id="mirror-chat-input" placeholder="Ask a question..." style="width:100%;box-sizing:border-box;margin-top:6px;padding:6px;border:1px solid #ccc;border-radius:4px">
  </div>
</div>
<script>
(function () {
  var answers = [
    ["price", "Pricing is listed on the page above; everything shown is current."],
    ["contact", "Use the feedback form on this page and we will get back to you."],
    ["hours", "We answer messages on business days, 9:00-18:00."]
  ];
  var toggle = document.getElementById("mirror-chat-toggle");
  var panel = document.getElementById("mirror-chat-panel");
  var log = document.getElementById("mirror-chat-log");
  var input = document.getElementById("mirror-chat-input");
  toggle.addEventListener("click", function () { panel.hidden = !panel.hidden; });
  input.addEventListener("keydown", function (e) {
    if (e.key !== "Enter" || !input.value.trim()) return;
    var q = input.value.trim().toLowerCase();
    var reply = "I can help with pricing, contact and opening hours.";
    for (var i = 0; i < answers.length; i++) {
      if (q.indexOf(answers[i][0]) !== -1) { reply = answers[i][1]; break; }
    }
    log.innerHTML += "<p><b>You:</b> " + input.value + "</p><p><b>Bot:</b> " + reply + "</p>";
    log.scrollTop = log.scrollHeight;
    input.value = "";
  });
})();
</script>
`
