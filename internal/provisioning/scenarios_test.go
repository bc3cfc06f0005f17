package provisioning

import (
	"context"
	"errors"
	"os"

	"github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/beaver-logs/beaver/internal/config"
	"github.com/beaver-logs/beaver/internal/platform/executor"
	"github.com/beaver-logs/beaver/internal/resources"
)

var _ = ginkgo.Describe("Deployer", func() {
	var env *testEnv

	deploy := func(parallel bool) (*Report, error) {
		return NewDeployer(parallel, nil).Deploy(env.newContext(context.Background()))
	}

	ginkgo.Context("with an empty resource model", func() {
		ginkgo.BeforeEach(func() {
			env = newTestEnv(ginkgo.GinkgoT(), nil)
		})

		ginkgo.It("reaches Deployed and provisions every slot", func() {
			report, err := deploy(false)

			Expect(err).NotTo(HaveOccurred())
			Expect(report.Deployed()).To(BeTrue())
			Expect(env.loadModel(ginkgo.GinkgoT()).AllProvisioned()).To(BeTrue())
			Expect(env.layout.RoutingFile()).To(BeAnExistingFile())
		})

		ginkgo.It("creates each resource once across repeated runs", func() {
			_, err := deploy(false)
			Expect(err).NotTo(HaveOccurred())
			_, err = deploy(false)
			Expect(err).NotTo(HaveOccurred())

			Expect(env.runner.CallsMatching("bq mk --dataset")).To(HaveLen(1))
			Expect(env.runner.CallsMatching("gcloud run jobs create")).To(HaveLen(1))
			Expect(env.runner.CallsMatching("gcloud beta run jobs replace")).To(HaveLen(2))
		})
	})

	ginkgo.Context("when every slot is already resolved", func() {
		ginkgo.BeforeEach(func() {
			env = newTestEnv(ginkgo.GinkgoT(), nil)
			env.writeModel(ginkgo.GinkgoT(), resolvedModel)
		})

		ginkgo.It("only regenerates, uploads and patches", func() {
			_, err := deploy(false)

			Expect(err).NotTo(HaveOccurred())
			Expect(env.createCalls()).To(BeEmpty())
			Expect(commandLines(env.runner.Calls())).To(HaveExactElements(
				HavePrefix("gcloud storage cp"),
				HavePrefix("gcloud run jobs describe"),
				HavePrefix("gcloud beta run jobs replace"),
			))
		})

		ginkgo.It("does not rewrite resolved identifiers", func() {
			before, err := os.ReadFile(env.layout.ResourcesFile())
			Expect(err).NotTo(HaveOccurred())

			_, err = deploy(true)
			Expect(err).NotTo(HaveOccurred())

			m, err := resources.Load(env.layout.ResourcesFile())
			Expect(err).NotTo(HaveOccurred())
			want, err := resources.Load(writeTemp(before))
			Expect(err).NotTo(HaveOccurred())
			Expect(m.Marshal()).To(Equal(mustMarshal(want)))
		})
	})

	ginkgo.Context("when a stage fails", func() {
		ginkgo.BeforeEach(func() {
			env = newTestEnv(ginkgo.GinkgoT(), func(c *config.Config) { c.RollbackOnFailure = false })
			env.runner.On("gcloud storage buckets create", executor.Fail(1, "ERROR: (gcloud.storage.buckets.create) HTTPError 403: forbidden"))
		})

		ginkgo.It("stops at the failing stage and leaves earlier resources in place", func() {
			report, err := deploy(false)

			Expect(err).To(HaveOccurred())
			var se *StageError
			Expect(errors.As(err, &se)).To(BeTrue())
			Expect(report.FailedStage).To(Equal(StageCreateBucket))
			Expect(env.runner.CallsMatching("gcloud storage cp")).To(BeEmpty())
			Expect(env.runner.CallsMatching("gcloud run jobs")).To(BeEmpty())
			Expect(report.Created).To(HaveLen(3))
		})
	})
})

func writeTemp(data []byte) string {
	f, err := os.CreateTemp(ginkgo.GinkgoT().TempDir(), "model-*.yaml")
	Expect(err).NotTo(HaveOccurred())
	_, err = f.Write(data)
	Expect(err).NotTo(HaveOccurred())
	Expect(f.Close()).To(Succeed())
	return f.Name()
}

func mustMarshal(m *resources.Model) []byte {
	data, err := m.Marshal()
	Expect(err).NotTo(HaveOccurred())
	return data
}
