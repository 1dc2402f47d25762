package credentials_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/afero"

	"github.com/angeloszaimis/audio-relay/internal/credentials"
)

const cookieFile = "/srv/relay/cookies.txt"

const cookieFileContent = "# Netscape HTTP Cookie File\n" +
	".youtube.com\tTRUE\t/\tTRUE\t0\tSID\tabc\n" +
	"#HttpOnly_.youtube.com\tTRUE\t/\tTRUE\t0\tHSID\tdef\n"

var _ = Describe("Store", func() {
	var (
		fs    afero.Fs
		store *credentials.Store
	)

	BeforeEach(func() {
		fs = afero.NewMemMapFs()
		store = credentials.NewStore(fs, cookieFile, "default-token", "DefaultAgent/1.0")
	})

	Describe("Resolve", func() {
		Context("when the caller supplies everything", func() {
			It("should use the caller values and ignore local defaults", func() {
				Expect(afero.WriteFile(fs, cookieFile, []byte(cookieFileContent), 0600)).To(Succeed())

				r, err := store.Resolve(credentials.Credentials{
					Cookie:    "SID=caller",
					UserAgent: "CallerAgent/2.0",
					Token:     "caller-token",
				}, true, true)

				Expect(err).NotTo(HaveOccurred())
				Expect(r.Cookie).To(Equal("SID=caller"))
				Expect(r.CookieFile).To(BeEmpty())
				Expect(r.FileCookies).To(BeEmpty())
				Expect(r.UserAgent).To(Equal("CallerAgent/2.0"))
				Expect(r.Token).To(Equal("caller-token"))
			})

			It("should forward caller values even to profiles that opt out of defaults", func() {
				r, err := store.Resolve(credentials.Credentials{Cookie: "a=b", Token: "t"}, false, false)
				Expect(err).NotTo(HaveOccurred())
				Expect(r.Cookie).To(Equal("a=b"))
				Expect(r.Token).To(Equal("t"))
			})
		})

		Context("when the caller supplies nothing", func() {
			It("should use the cookie file when present", func() {
				Expect(afero.WriteFile(fs, cookieFile, []byte(cookieFileContent), 0600)).To(Succeed())

				r, err := store.Resolve(credentials.Credentials{}, true, true)
				Expect(err).NotTo(HaveOccurred())
				Expect(r.Cookie).To(BeEmpty())
				Expect(r.CookieFile).To(Equal(cookieFile))
				Expect(r.FileCookies).To(HaveLen(2))
				Expect(r.Token).To(Equal("default-token"))
				Expect(r.UserAgent).To(Equal("DefaultAgent/1.0"))
			})

			It("should proceed unauthenticated without a cookie file", func() {
				r, err := store.Resolve(credentials.Credentials{}, true, false)
				Expect(err).NotTo(HaveOccurred())
				Expect(r.CookieFile).To(BeEmpty())
				Expect(r.Token).To(BeEmpty())
			})

			It("should not use local defaults for profiles that opt out", func() {
				Expect(afero.WriteFile(fs, cookieFile, []byte(cookieFileContent), 0600)).To(Succeed())

				r, err := store.Resolve(credentials.Credentials{}, false, false)
				Expect(err).NotTo(HaveOccurred())
				Expect(r.CookieFile).To(BeEmpty())
				Expect(r.Token).To(BeEmpty())
				Expect(r.UserAgent).To(Equal("DefaultAgent/1.0"))
			})

			It("should pick up a cookie file dropped in after construction", func() {
				Expect(store.HasCookieFile()).To(BeFalse())
				Expect(afero.WriteFile(fs, cookieFile, []byte(cookieFileContent), 0600)).To(Succeed())
				Expect(store.HasCookieFile()).To(BeTrue())
			})

			It("should fail on a malformed cookie file", func() {
				Expect(afero.WriteFile(fs, cookieFile, []byte("not a cookie line\n"), 0600)).To(Succeed())

				_, err := store.Resolve(credentials.Credentials{}, true, false)
				Expect(err).To(MatchError(ContainSubstring("parse cookie file")))
			})
		})

		It("should trim whitespace around caller values", func() {
			r, err := store.Resolve(credentials.Credentials{Token: "  spaced  "}, false, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(r.Token).To(Equal("spaced"))
		})
	})

	Describe("HasCookieFile", func() {
		It("should be false when no path is configured", func() {
			s := credentials.NewStore(fs, "", "", "")
			Expect(s.HasCookieFile()).To(BeFalse())
		})

		It("should be false for a directory", func() {
			Expect(fs.MkdirAll(cookieFile, 0755)).To(Succeed())
			Expect(store.HasCookieFile()).To(BeFalse())
		})
	})

	Describe("Credentials.IsZero", func() {
		It("should detect empty overrides", func() {
			Expect(credentials.Credentials{}.IsZero()).To(BeTrue())
			Expect(credentials.Credentials{UserAgent: "x"}.IsZero()).To(BeFalse())
		})
	})
})
