package event_test

import (
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rancher/autorebase-action/internal/event"
	gh "github.com/rancher/autorebase-action/internal/github"
)

var _ = Describe("ParsePullRequestEvent", func() {
	const sample = `{
		"action": "labeled",
		"label": {"name": "autorebase"},
		"repository": {
			"name": "repo",
			"full_name": "rancher/repo",
			"owner": {"login": "rancher"}
		},
		"pull_request": {
			"number": 123,
			"merged": false,
			"title": "Fix bug",
			"commits": 3,
			"head": {
				"ref": "feature",
				"sha": "def456",
				"repo": {"name": "repo", "full_name": "rancher/repo", "owner": {"login": "rancher"}}
			},
			"base": {
				"ref": "main",
				"sha": "abc123",
				"repo": {"name": "repo", "full_name": "rancher/repo", "owner": {"login": "rancher"}}
			},
			"labels": [
				{"name": "autorebase"},
				{"name": "kind/bug"}
			]
		}
	}`

	It("parses repository and pull request details", func() {
		payload, err := event.ParsePullRequestEvent(strings.NewReader(sample))
		Expect(err).NotTo(HaveOccurred())

		Expect(payload.Action).To(Equal(event.PullRequestActionLabeled))
		Expect(payload.Repository).To(Equal(gh.Repository{FullName: "rancher/repo", Owner: "rancher", Name: "repo"}))
		Expect(payload.LabelName).To(Equal("autorebase"))

		pr := payload.PullRequest
		Expect(pr.Number).To(Equal(123))
		Expect(pr.Merged).To(BeFalse())
		Expect(pr.Title).To(Equal("Fix bug"))
		Expect(pr.Head.Ref).To(Equal("feature"))
		Expect(pr.Head.SHA).To(Equal("def456"))
		Expect(pr.Head.Commits).To(Equal(3))
		Expect(pr.Head.Repo.FullName).To(Equal("rancher/repo"))
		Expect(pr.Base.Ref).To(Equal("main"))
		Expect(pr.Base.Repo.Owner).To(Equal("rancher"))
		Expect(pr.LabelNames()).To(Equal([]string{"autorebase", "kind/bug"}))
		Expect(pr.IsFromFork()).To(BeFalse())
	})

	It("detects pull requests from forks", func() {
		payload, err := event.ParsePullRequestEvent(strings.NewReader(`{
			"action": "opened",
			"pull_request": {
				"number": 7,
				"head": {"ref": "feature", "sha": "s", "repo": {"name": "repo", "full_name": "someone/repo", "owner": {"login": "someone"}}},
				"base": {"ref": "main", "repo": {"name": "repo", "full_name": "rancher/repo", "owner": {"login": "rancher"}}}
			}
		}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(payload.PullRequest.Head.Repo.FullName).To(Equal("someone/repo"))
		Expect(payload.PullRequest.IsFromFork()).To(BeTrue())
	})

	It("treats a deleted head repository as external", func() {
		payload, err := event.ParsePullRequestEvent(strings.NewReader(`{
			"action": "synchronize",
			"pull_request": {
				"number": 5,
				"head": {"ref": "gone", "sha": "s", "repo": null},
				"base": {"ref": "main", "repo": {"name": "repo", "owner": {"login": "rancher"}}}
			}
		}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(payload.PullRequest.Head.Repo).To(Equal(gh.Repository{}))
		Expect(payload.PullRequest.Base.Repo.FullName).To(Equal("rancher/repo"))
		Expect(payload.PullRequest.IsFromFork()).To(BeTrue())
	})

	It("normalizes empty fields", func() {
		payload, err := event.ParsePullRequestEvent(strings.NewReader(`{"action":"CLOSED","repository":{"name":"repo","owner":{"login":"ORG"}},"pull_request":{"number":1,"merged":true,"head":{"sha":""}}}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(payload.Action).To(Equal(event.PullRequestActionClosed))
		Expect(payload.Repository.FullName).To(Equal("ORG/repo"))
		Expect(payload.PullRequest.Merged).To(BeTrue())
		Expect(payload.PullRequest.Labels).To(BeEmpty())
	})

	It("rejects payloads without a pull request", func() {
		_, err := event.ParsePullRequestEvent(strings.NewReader(`{"action":"created"}`))
		Expect(err).To(MatchError(ContainSubstring("no pull_request")))
	})

	It("rejects malformed JSON", func() {
		_, err := event.ParsePullRequestEvent(strings.NewReader(`{`))
		Expect(err).To(MatchError(ContainSubstring("decode pull_request event")))
	})

	It("reads the payload from a file", func() {
		path := filepath.Join(GinkgoT().TempDir(), "event.json")
		Expect(os.WriteFile(path, []byte(sample), 0o600)).To(Succeed())

		payload, err := event.ParsePullRequestEventFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(payload.PullRequest.Number).To(Equal(123))

		_, err = event.ParsePullRequestEventFile(filepath.Join(GinkgoT().TempDir(), "missing.json"))
		Expect(err).To(MatchError(ContainSubstring("open event file")))
	})
})

var _ = DescribeTable("IsSupported",
	func(name string, expected bool) {
		Expect(event.IsSupported(name)).To(Equal(expected))
	},
	Entry("pull_request", "pull_request", true),
	Entry("pull_request_target", "pull_request_target", true),
	Entry("push", "push", false),
	Entry("empty", "", false),
)
