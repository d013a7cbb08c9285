package rawhttp

import (
	"bytes"
	"html/template"
)

const pageStyle = `
body{font-family:system-ui,-apple-system,sans-serif;max-width:640px;margin:40px auto;padding:0 16px;color:#222}
h1{font-size:1.4em}
.box{border:1px solid #ddd;border-radius:8px;padding:20px;margin-top:16px}
.btn{display:inline-block;background:#2563eb;color:#fff;padding:10px 18px;border-radius:6px;text-decoration:none;border:0;font-size:1em;cursor:pointer}
pre{background:#f6f8fa;padding:12px;border-radius:6px;overflow:auto;max-height:400px;white-space:pre-wrap}
.ok{color:#15803d}.err{color:#b91c1c}
`

var pages = template.Must(template.New("layout").Parse(`{{define "head"}}<!DOCTYPE html>
<html><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title><style>` + pageStyle + `</style></head><body>{{end}}

{{define "download"}}{{template "head" .}}
<h1>Download file</h1>
<div class="box">
<p><strong>{{.Filename}}</strong></p>
<a class="btn" href="/{{.Token}}/file">Download</a>
</div>
{{if .Preview}}<div class="box"><p>Preview</p><pre id="preview">Loading...</pre></div>
<script>
fetch({{.RawURL}}).then(function(r){return r.ok?r.text():Promise.reject(r.status)})
.then(function(t){document.getElementById('preview').textContent=t})
.catch(function(){document.getElementById('preview').textContent='Preview not available'});
</script>{{end}}
</body></html>{{end}}

{{define "upload"}}{{template "head" .}}
<h1>Upload file</h1>
<div class="box">
<form method="POST" action="/{{.Token}}" enctype="multipart/form-data">
<p><input type="file" name="file" required></p>
<button class="btn" type="submit">Upload</button>
</form>
</div>
</body></html>{{end}}

{{define "result"}}{{template "head" .}}
<h1 class="{{if .Success}}ok{{else}}err{{end}}">{{.Message}}</h1>
{{if .Detail}}<p>{{.Detail}}</p>{{end}}
</body></html>{{end}}
`))

type pageData struct {
	Title    string
	Token    string
	Filename string
	Preview  bool
	RawURL   string
	Success  bool
	Message  string
	Detail   string
}

func render(name string, data pageData) []byte {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		// templates are static, a failure here is a programming error
		panic(err)
	}
	return buf.Bytes()
}

func downloadPage(token, filename string, preview bool) []byte {
	return render("download", pageData{
		Title:    "Download " + filename,
		Token:    token,
		Filename: filename,
		Preview:  preview,
		RawURL:   "/" + token + "/raw",
	})
}

func uploadPage(token string) []byte {
	return render("upload", pageData{Title: "Upload file", Token: token})
}

func resultPage(success bool, message, detail string) []byte {
	return render("result", pageData{Title: message, Success: success, Message: message, Detail: detail})
}
